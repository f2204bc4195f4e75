package harvest

import (
	"fmt"

	"github.com/use-agent/followharvest/driver"
)

// Locator lists for the login flow and the followers listing. These are
// isolated here because the site's markup shifts between layout variants;
// each list is ranked, first match wins.

var usernameLocators = []driver.Locator{
	driver.ByCSS("autocomplete-username", `input[autocomplete="username"]`),
	driver.ByCSS("name-text", `input[name="text"]`),
	driver.ByCSS("name-username", `input[name="username"]`),
	driver.ByCSS("type-email", `input[type="email"]`),
}

// continueLocators is used after the identifier and after the challenge.
// The last entry accepts any visible enabled button.
var continueLocators = []driver.Locator{
	driver.ByText("next-text", `button, div[role="button"]`, `/^\s*Next\s*$/i`),
	driver.ByXPath("next-path", `//div[@role="button"][.//span[normalize-space(text())="Next"]]`),
	driver.ByCSS("next-testid", `[data-testid="LoginForm_Forward_Button"], [data-testid="ocfEnterTextNextButton"]`),
	driver.ByCSS("any-button", `button:not([disabled]), div[role="button"]:not([aria-disabled="true"])`),
}

// challengeLocators match the "enter your phone number or username" check
// shown on unusual-activity logins.
var challengeLocators = []driver.Locator{
	driver.ByCSS("challenge-testid", `input[data-testid="ocfEnterTextTextInput"]`),
	driver.ByXPath("challenge-prompt", `//span[contains(., "phone number or username")]/following::input[@name="text"][1]`),
}

var challengeConfirmLocators = []driver.Locator{
	driver.ByCSS("challenge-next-testid", `[data-testid="ocfEnterTextNextButton"]`),
	driver.ByText("challenge-next-text", `button, div[role="button"]`, `/^\s*Next\s*$/i`),
}

var passwordLocators = []driver.Locator{
	driver.ByCSS("name-password", `input[name="password"]`),
	driver.ByCSS("type-password", `input[type="password"]`),
	driver.ByCSS("autocomplete-current-password", `input[autocomplete="current-password"]`),
	driver.ByCSS("placeholder-password", `input[placeholder*="assword" i]`),
	driver.ByXPath("label-password", `//span[contains(normalize-space(.), "Password")]/following::input[1]`),
}

var submitLocators = []driver.Locator{
	driver.ByCSS("login-testid", `[data-testid="LoginForm_Login_Button"]`),
	driver.ByText("login-text", `button, div[role="button"]`, `/^\s*Log in\s*$/i`),
	driver.ByXPath("login-path", `//div[@role="button"][.//span[normalize-space(text())="Log in"]]`),
	driver.ByCSS("submit-button", `button[type="submit"]`),
}

// landmarkLocators only render for an authenticated session.
var landmarkLocators = []driver.Locator{
	driver.ByCSS("home-tab", `[data-testid="AppTabBar_Home_Link"]`),
	driver.ByCSS("home-link", `a[href="/home"]`),
	driver.ByCSS("compose-button", `[data-testid="SideNav_NewTweet_Button"]`),
	driver.ByCSS("primary-column", `[data-testid="primaryColumn"]`),
}

// cellLocators select one rendered follower each.
var cellLocators = []driver.Locator{
	driver.ByCSS("user-cell", `[data-testid="UserCell"]`),
	driver.ByCSS("cell-inner", `[data-testid="cellInnerDiv"]`),
}

// followersReadyLocators signal that the followers route has rendered
// something worth reading, either the listing or an error panel.
var followersReadyLocators = []driver.Locator{
	driver.ByCSS("user-cell", `[data-testid="UserCell"]`),
	driver.ByCSS("empty-state", `[data-testid="emptyState"]`),
	driver.ByCSS("primary-column", `[data-testid="primaryColumn"]`),
}

// countLocators find the follower total for handle.
func countLocators(handle string) []driver.Locator {
	return []driver.Locator{
		driver.ByCSS("followers-link", fmt.Sprintf(`a[href="/%s/followers" i]`, handle)),
		driver.ByCSS("verified-followers-link", fmt.Sprintf(`a[href="/%s/verified_followers" i]`, handle)),
		driver.ByCSS("any-followers-link", `a[href$="/followers"]`),
		driver.ByXPath("followers-label", `//span[normalize-space(text())="Followers"]/ancestor::a[1]`),
	}
}
