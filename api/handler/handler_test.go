package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/followharvest/config"
	"github.com/use-agent/followharvest/models"
)

type runnerFunc func(ctx context.Context, req *models.HarvestRequest) (*models.HarvestResponse, error)

func (f runnerFunc) Run(ctx context.Context, req *models.HarvestRequest) (*models.HarvestResponse, error) {
	return f(ctx, req)
}

type staticStats models.SessionStats

func (s staticStats) Stats() models.SessionStats { return models.SessionStats(s) }

func harvestCfg() config.HarvestConfig {
	return config.HarvestConfig{DefaultMaxFollowers: 100, MaxFollowersLimit: 5000}
}

func serve(t *testing.T, runner Runner, body string) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/follow-harvest", Harvest(runner, harvestCfg()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/follow-harvest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return w.Code, out
}

func mustNotRun(t *testing.T) Runner {
	return runnerFunc(func(context.Context, *models.HarvestRequest) (*models.HarvestResponse, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	})
}

func TestHarvest_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing handle", `{"username":"u","password":"p"}`, models.MsgHandleRequired},
		{"at sign only", `{"handle":"@","username":"u","password":"p"}`, models.MsgHandleRequired},
		{"missing password", `{"handle":"alice","username":"u"}`, models.MsgCredentialsRequired},
		{"missing both", `{"handle":"alice"}`, models.MsgCredentialsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := serve(t, mustNotRun(t), tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tt.msg, out["error"])
			assert.Equal(t, models.ErrCodeInvalidInput, out["code"])
		})
	}
}

func TestHarvest_MalformedJSON(t *testing.T) {
	code, out := serve(t, mustNotRun(t), `{"handle":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, models.ErrCodeInvalidInput, out["code"])
}

func TestHarvest_EmptyBodyNeedsHandle(t *testing.T) {
	code, out := serve(t, mustNotRun(t), ``)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, models.MsgHandleRequired, out["error"])
	assert.Equal(t, models.ErrCodeInvalidInput, out["code"])
}

func TestHarvest_NormalizesBeforeRun(t *testing.T) {
	var got *models.HarvestRequest
	runner := runnerFunc(func(_ context.Context, req *models.HarvestRequest) (*models.HarvestResponse, error) {
		got = req
		return &models.HarvestResponse{Success: true, Handle: req.Handle}, nil
	})

	code, out := serve(t, runner, `{"handle":"@alice","maxFollowers":0,"username":"u","password":"p"}`)

	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Handle)
	assert.Equal(t, 100, got.MaxFollowers)
	assert.Equal(t, []any{}, out["followers"])
	assert.EqualValues(t, 0, out["totalFetched"])
}

func TestHarvest_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"login page", models.NewHarvestError(models.ErrCodeLoginPage, models.MsgLoginPageFailed, errors.New("dns")), http.StatusInternalServerError, "Failed to load Twitter login page: dns"},
		{"login failed", models.NewHarvestError(models.ErrCodeLoginFailed, models.MsgLoginFailed, errors.New("password field not found")), http.StatusUnauthorized, "Login failed: password field not found"},
		{"navigation", models.NewHarvestError(models.ErrCodeNavigation, models.MsgNavigationFailed, errors.New("reset")), http.StatusInternalServerError, "Failed to navigate to followers page: reset"},
		{"timeout", models.NewHarvestError(models.ErrCodeTimeout, models.MsgHarvestFailed, errors.New("context deadline exceeded")), http.StatusInternalServerError, "Failed to fetch followers: context deadline exceeded"},
		{"untyped", errors.New("surprise"), http.StatusInternalServerError, "Failed to fetch followers: surprise"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := runnerFunc(func(context.Context, *models.HarvestRequest) (*models.HarvestResponse, error) {
				return nil, tt.err
			})
			code, out := serve(t, runner, `{"handle":"alice","username":"u","password":"p"}`)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, false, out["success"])
			assert.Equal(t, tt.msg, out["error"])
			assert.NotContains(t, out, "followers")
		})
	}
}

func TestHarvest_UnreachableIs200(t *testing.T) {
	runner := runnerFunc(func(context.Context, *models.HarvestRequest) (*models.HarvestResponse, error) {
		return &models.HarvestResponse{Success: false, Error: models.MsgNotAccessible, Code: models.ErrCodeNotAccessible}, nil
	})

	code, out := serve(t, runner, `{"handle":"gone","username":"u","password":"p"}`)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, models.MsgNotAccessible, out["error"])
}

func TestHealth(t *testing.T) {
	tests := []struct {
		stats  models.SessionStats
		status string
	}{
		{models.SessionStats{MaxSessions: 5, ActiveSessions: 4}, "healthy"},
		{models.SessionStats{MaxSessions: 5, ActiveSessions: 5}, "degraded"},
		{models.SessionStats{MaxSessions: 0, ActiveSessions: 0}, "healthy"},
	}
	for _, tt := range tests {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.GET("/health", Health(staticStats(tt.stats), time.Now()))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		var out models.HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, tt.status, out.Status)
		assert.Equal(t, tt.stats, out.SessionStats)
		assert.Equal(t, Version, out.Version)
	}
}
