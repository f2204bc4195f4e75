package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/driver"
	"github.com/use-agent/followharvest/models"
)

// unreachableMarkers are lower-cased, apostrophe-normalised fragments of
// the panels shown instead of a followers listing.
var unreachableMarkers = []string{
	"this account doesn't exist",
	"account suspended",
	"these posts are protected",
	"these tweets are protected",
	"this page doesn't exist",
}

// Reachability classifies whether the target's followers can be read.
type Reachability struct {
	Reachable bool

	// Marker is the matched text when Reachable is false.
	Marker string
}

// FollowersURL builds the followers listing URL for handle.
func FollowersURL(baseURL, handle string) string {
	return baseURL + "/" + url.PathEscape(handle) + "/followers"
}

// Navigate opens the followers listing of handle and classifies it. An
// unreachable target is a normal result, not an error. Errors are
// ErrCodeNavigation, or a timeout when ctx expires.
func Navigate(ctx context.Context, drv driver.Driver, cfg config.HarvestConfig, handle string, ev Events) (Reachability, error) {
	if err := drv.Navigate(ctx, FollowersURL(cfg.BaseURL, handle)); err != nil {
		return Reachability{}, models.NewHarvestError(models.ErrCodeNavigation, models.MsgNavigationFailed, err)
	}

	// A miss here is fine: some error panels render none of the ready
	// landmarks, and the text scan below still decides.
	if _, _, err := driver.FindFirst(ctx, drv, cfg.ContentWait, cfg.PollInterval, followersReadyLocators); err != nil && !errors.Is(err, driver.ErrNotFound) {
		return Reachability{}, fetchFailure(err)
	}

	text, err := drv.BodyText(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Reachability{}, fetchFailure(ctx.Err())
		}
		return Reachability{}, models.NewHarvestError(models.ErrCodeNavigation, models.MsgNavigationFailed, fmt.Errorf("read page text: %w", err))
	}

	if marker, found := matchUnreachable(text); found {
		ev.Unreachable(handle, marker)
		return Reachability{Reachable: false, Marker: marker}, nil
	}
	return Reachability{Reachable: true}, nil
}

// matchUnreachable scans page text for a known unreachable marker.
func matchUnreachable(text string) (string, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	for _, marker := range unreachableMarkers {
		if strings.Contains(normalized, marker) {
			return marker, true
		}
	}
	return "", false
}
