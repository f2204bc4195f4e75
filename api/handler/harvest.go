package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/models"
)

// Runner executes a harvest request.
type Runner interface {
	Run(ctx context.Context, req *models.HarvestRequest) (*models.HarvestResponse, error)
}

// Harvest returns a handler for POST /follow-harvest.
//
// Orchestration flow:
//  1. Parse the body, normalize and validate.
//  2. Runner.Run → login, navigate, count, collect.
//  3. Map a HarvestError to its status, or return the result with 200.
//
// An unreachable target is a 200 with success false.
func Harvest(runner Runner, cfg config.HarvestConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.HarvestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			// An empty body carries no handle at all.
			msg := err.Error()
			if errors.Is(err, io.EOF) {
				msg = models.MsgHandleRequired
			}
			respondError(c, models.NewHarvestError(models.ErrCodeInvalidInput, msg, nil))
			return
		}
		req.Normalize(cfg.DefaultMaxFollowers, cfg.MaxFollowersLimit)
		if verr := req.Validate(); verr != nil {
			respondError(c, verr)
			return
		}

		resp, err := runner.Run(c.Request.Context(), &req)
		if err != nil {
			slog.Warn("harvest failed",
				"handle", req.Handle,
				"error", err,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a HarvestError to its HTTP status and writes the
// failure body.
func respondError(c *gin.Context, err error) {
	var he *models.HarvestError
	if !errors.As(err, &he) {
		he = models.NewHarvestError(models.ErrCodeInternal, models.MsgHarvestFailed, err)
	}
	c.JSON(mapErrorToStatus(he), models.FailureResponse(he))
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.HarvestError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeLoginFailed, models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	default:
		return http.StatusInternalServerError // 500
	}
}
