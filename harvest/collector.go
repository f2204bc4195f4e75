package harvest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/driver"
	"github.com/use-agent/followharvest/models"
)

// MaxStalls is the number of consecutive scrolls without page growth after
// which the listing is considered exhausted.
const MaxStalls = 15

// CollectionState accumulates unique records across scroll iterations.
type CollectionState struct {
	records []models.FollowerRecord
	seen    map[string]struct{}

	NoGrowthAttempts int
	LastPageHeight   float64
}

// NewCollectionState returns an empty state.
func NewCollectionState() *CollectionState {
	return &CollectionState{seen: make(map[string]struct{})}
}

// Add appends rec unless its handle is empty or already collected.
// Handles compare case-insensitively.
func (s *CollectionState) Add(rec models.FollowerRecord) bool {
	if rec.Handle == "" {
		return false
	}
	key := strings.ToLower(rec.Handle)
	if _, dup := s.seen[key]; dup {
		return false
	}
	s.seen[key] = struct{}{}
	s.records = append(s.records, rec)
	return true
}

// Len returns the number of unique records.
func (s *CollectionState) Len() int { return len(s.records) }

// Records returns at most limit records in collection order.
func (s *CollectionState) Records(limit int) []models.FollowerRecord {
	if limit >= 0 && len(s.records) > limit {
		return s.records[:limit]
	}
	return s.records
}

// ObserveHeight compares a post-scroll height with the pre-scroll height.
// Only an unchanged height is a stall; the virtualized listing may shrink
// while new cells load. ok is false when the height could not be measured,
// which also counts as a stall. It returns true when the height changed.
func (s *CollectionState) ObserveHeight(before, after float64, ok bool) bool {
	if ok && after != before {
		s.NoGrowthAttempts = 0
		s.LastPageHeight = after
		return true
	}
	s.NoGrowthAttempts++
	if ok {
		s.LastPageHeight = after
	}
	return false
}

// Exhausted reports whether the stall bound has been reached.
func (s *CollectionState) Exhausted() bool {
	return s.NoGrowthAttempts >= MaxStalls
}

// Collect scrolls the followers listing, extracting records until limit are
// held or the listing height stops changing. On context expiry it returns
// whatever was collected together with the context error.
func Collect(ctx context.Context, drv driver.Driver, cfg config.HarvestConfig, limit int, ev Events) ([]models.FollowerRecord, error) {
	state := NewCollectionState()

	for {
		if err := ctx.Err(); err != nil {
			return state.Records(limit), err
		}

		added := harvestCells(ctx, drv, state)
		if added > 0 {
			ev.Progress(state.Len(), limit)
		}
		if state.Len() >= limit {
			return state.Records(limit), nil
		}

		before, errBefore := drv.MeasureHeight(ctx)
		scrollErr := drv.ScrollToBottom(ctx)
		if err := driver.Pause(ctx, cfg.ScrollSettle); err != nil {
			return state.Records(limit), err
		}
		after, errAfter := drv.MeasureHeight(ctx)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return state.Records(limit), ctxErr
		}
		if scrollErr != nil {
			slog.Debug("scroll failed", "error", scrollErr)
		}

		measured := errBefore == nil && errAfter == nil && scrollErr == nil
		if !state.ObserveHeight(before, after, measured) {
			ev.Stall(state.NoGrowthAttempts, state.LastPageHeight)
			if state.Exhausted() {
				return state.Records(limit), nil
			}
		}
	}
}

// harvestCells extracts every rendered cell into state using the first
// cell locator that yields anything. It returns the number of new records.
func harvestCells(ctx context.Context, drv driver.Driver, state *CollectionState) int {
	for _, loc := range cellLocators {
		cells, err := drv.CellsHTML(ctx, loc)
		if err != nil {
			slog.Debug("read follower cells", "strategy", loc.Name, "error", err)
			continue
		}
		if len(cells) == 0 {
			continue
		}
		added := 0
		for _, cell := range cells {
			if state.Add(ExtractRecord(cell)) {
				added++
			}
		}
		return added
	}
	return 0
}
