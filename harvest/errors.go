package harvest

import (
	"context"
	"errors"

	"github.com/use-agent/followharvest/models"
)

// fetchFailure wraps an error that fits no stage-specific category into the
// catch-all "Failed to fetch followers" error, keeping the code of a
// wrapped HarvestError and mapping context expiry to ErrCodeTimeout.
func fetchFailure(err error) *models.HarvestError {
	var he *models.HarvestError
	switch {
	case errors.As(err, &he):
		return models.NewHarvestError(he.Code, models.MsgHarvestFailed, errors.New(he.Public()))
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewHarvestError(models.ErrCodeTimeout, models.MsgHarvestFailed, err)
	case errors.Is(err, context.Canceled):
		return models.NewHarvestError(models.ErrCodeTimeout, models.MsgHarvestFailed, errors.New("request canceled"))
	default:
		return models.NewHarvestError(models.ErrCodeInternal, models.MsgHarvestFailed, err)
	}
}
