package harvest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/followharvest/models"
	"golang.org/x/net/html"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

// reservedPaths are first path segments that look like handles but are
// site routes.
var reservedPaths = map[string]struct{}{
	"home": {}, "explore": {}, "search": {}, "notifications": {}, "messages": {},
	"settings": {}, "i": {}, "hashtag": {}, "compose": {}, "login": {},
}

// NormalizeHandle strips "@" and surrounding space and reports whether the
// rest is a syntactically valid handle.
func NormalizeHandle(s string) (string, bool) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "@")
	if !handlePattern.MatchString(h) {
		return "", false
	}
	if _, reserved := reservedPaths[strings.ToLower(h)]; reserved {
		return "", false
	}
	return h, true
}

// fieldRule is one strategy for one field: a compiled selector and a reader
// applied to each match in document order until one returns non-empty.
type fieldRule struct {
	sel  cascadia.Selector
	read func(*goquery.Selection) string
}

func rule(selector string, read func(*goquery.Selection) string) fieldRule {
	return fieldRule{sel: cascadia.MustCompile(selector), read: read}
}

// firstOf applies rules in rank order.
func firstOf(doc *goquery.Selection, rules []fieldRule) string {
	for _, r := range rules {
		var out string
		doc.FindMatcher(r.sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = r.read(s)
			return out == ""
		})
		if out != "" {
			return out
		}
	}
	return ""
}

var handleRules = []fieldRule{
	rule(`a[role="link"][href^="/"]`, func(s *goquery.Selection) string {
		href, _ := s.Attr("href")
		return handleFromHref(href)
	}),
	rule(`span`, func(s *goquery.Selection) string {
		text := collapse(s.Text())
		if !strings.HasPrefix(text, "@") {
			return ""
		}
		h, _ := NormalizeHandle(text)
		return h
	}),
	rule(`[data-testid^="UserAvatar-Container-"]`, func(s *goquery.Selection) string {
		id, _ := s.Attr("data-testid")
		h, _ := NormalizeHandle(strings.TrimPrefix(id, "UserAvatar-Container-"))
		return h
	}),
}

var displayNameRules = []fieldRule{
	rule(`[data-testid="User-Name"] a`, nameText),
	rule(`a[role="link"] div[dir="ltr"] > span`, nameText),
	rule(`[data-testid^="UserAvatar-Container-"] img[alt]`, attr("alt")),
}

var bioRules = []fieldRule{
	rule(`[data-testid="UserDescription"]`, func(s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	}),
	// Unlabelled layout: the description is the first auto-direction block
	// outside any link or button.
	rule(`div[dir="auto"]`, func(s *goquery.Selection) string {
		if s.Closest("a, button").Length() > 0 {
			return ""
		}
		return strings.TrimSpace(s.Text())
	}),
}

var avatarRules = []fieldRule{
	rule(`img[src*="profile_images"]`, attr("src")),
	rule(`[data-testid^="UserAvatar-Container"] img[src]`, attr("src")),
	rule(`[data-testid^="UserAvatar-Container"] [style*="background-image"]`, func(s *goquery.Selection) string {
		style, _ := s.Attr("style")
		if m := backgroundURL.FindStringSubmatch(style); m != nil {
			return m[1]
		}
		return ""
	}),
}

var joinDateRules = []fieldRule{
	rule(`[data-testid="UserJoinDate"]`, func(s *goquery.Selection) string {
		return collapse(s.Text())
	}),
	rule(`span:containsOwn("Joined")`, func(s *goquery.Selection) string {
		return collapse(s.Text())
	}),
	rule(`time[datetime]`, attr("datetime")),
}

var backgroundURL = regexp.MustCompile(`url\(["']?([^"')]+)["']?\)`)

// ExtractRecord pulls a follower out of one cell's outer HTML. Fields whose
// strategies all miss are left empty; a record without a handle is
// returned with an empty Handle and must be discarded by the caller.
func ExtractRecord(cellHTML string) models.FollowerRecord {
	node, err := html.Parse(strings.NewReader(cellHTML))
	if err != nil {
		return models.FollowerRecord{}
	}
	doc := goquery.NewDocumentFromNode(node).Selection

	return models.FollowerRecord{
		Handle:      firstOf(doc, handleRules),
		DisplayName: firstOf(doc, displayNameRules),
		Bio:         firstOf(doc, bioRules),
		AvatarURL:   firstOf(doc, avatarRules),
		JoinDate:    firstOf(doc, joinDateRules),
	}
}

// handleFromHref accepts "/alice" (query ignored) and rejects deeper paths
// such as "/alice/status/1".
func handleFromHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" || strings.Contains(path, "/") {
		return ""
	}
	h, _ := NormalizeHandle(path)
	return h
}

// nameText returns the link text unless it is the "@handle" line.
func nameText(s *goquery.Selection) string {
	text := collapse(s.Text())
	if strings.HasPrefix(text, "@") {
		return ""
	}
	return text
}

func attr(name string) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		v, _ := s.Attr(name)
		return strings.TrimSpace(v)
	}
}

// collapse trims and squeezes internal whitespace runs to one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
