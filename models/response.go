package models

import "encoding/json"

// FollowerRecord is one follower extracted from the listing.
type FollowerRecord struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatarUrl"`
	JoinDate    string `json:"joinDate"`
}

// HarvestResponse is the response for POST /follow-harvest.
type HarvestResponse struct {
	// Success is true only when the collection loop ran to completion.
	Success bool `json:"success"`

	Handle        string           `json:"handle"`
	FollowerCount int              `json:"followerCount"`
	Followers     []FollowerRecord `json:"followers"`

	// TotalFetched always equals len(Followers) on success.
	TotalFetched int `json:"totalFetched"`

	// Error is populated only when Success is false.
	Error string `json:"error,omitempty"`

	// Code is the machine-readable error code accompanying Error.
	Code string `json:"code,omitempty"`
}

// MarshalJSON emits only success, error and code for failures, matching the
// documented failure body.
func (r *HarvestResponse) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Code    string `json:"code,omitempty"`
		}{r.Success, r.Error, r.Code})
	}

	followers := r.Followers
	if followers == nil {
		followers = []FollowerRecord{}
	}
	return json.Marshal(struct {
		Success       bool             `json:"success"`
		Handle        string           `json:"handle"`
		FollowerCount int              `json:"followerCount"`
		Followers     []FollowerRecord `json:"followers"`
		TotalFetched  int              `json:"totalFetched"`
	}{r.Success, r.Handle, r.FollowerCount, followers, r.TotalFetched})
}

// FailureResponse renders a HarvestError into the response contract.
func FailureResponse(err *HarvestError) *HarvestResponse {
	return &HarvestResponse{
		Success: false,
		Error:   err.Public(),
		Code:    err.Code,
	}
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string       `json:"status"` // "healthy" or "degraded"
	Uptime       string       `json:"uptime"`
	SessionStats SessionStats `json:"session_stats"`
	Version      string       `json:"version"`
}

// SessionStats reports the state of the browser session slots.
type SessionStats struct {
	MaxSessions    int `json:"max_sessions"`
	ActiveSessions int `json:"active_sessions"`
}
