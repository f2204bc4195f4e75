package harvest

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/driver"
)

// countPattern captures the first number in a display string and an
// optional magnitude suffix glued to it ("12.3K", "1,204", "2M").
var countPattern = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?|\.\d+)(?:([kmb])\b)?`)

var magnitudes = map[string]float64{
	"k": 1e3,
	"m": 1e6,
	"b": 1e9,
}

// ParseCount normalises a human-readable count to an integer, rounding to
// the nearest unit. Text without a number yields 0.
func ParseCount(text string) int {
	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	if mult, ok := magnitudes[strings.ToLower(m[2])]; ok {
		n *= mult
	}
	n = math.Round(n)
	if n >= math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// ReadFollowerCount reads the displayed follower total. A match whose text
// carries no number (the bare "Followers" tab) is passed over for the
// lower-ranked locators. The display is decorative; any miss returns 0.
func ReadFollowerCount(ctx context.Context, drv driver.Driver, cfg config.HarvestConfig, handle string) int {
	locs := countLocators(handle)
	wait := cfg.CountWait
	for len(locs) > 0 {
		el, loc, err := driver.FindFirst(ctx, drv, wait, cfg.PollInterval, locs)
		if err != nil {
			slog.Debug("follower count not displayed", "handle", handle, "error", err)
			return 0
		}
		text, err := el.Text(ctx)
		if err != nil {
			slog.Debug("follower count unreadable", "handle", handle, "strategy", loc.Name, "error", err)
		} else if countPattern.MatchString(text) {
			return ParseCount(text)
		}

		// The page has rendered by now; the rest are single-round probes.
		locs = locatorsAfter(locs, loc.Name)
		wait = 0
	}
	return 0
}

// locatorsAfter returns the locators ranked below the one named name.
func locatorsAfter(locs []driver.Locator, name string) []driver.Locator {
	for i, l := range locs {
		if l.Name == name {
			return locs[i+1:]
		}
	}
	return nil
}
