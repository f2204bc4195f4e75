package models

import "strings"

// HarvestRequest is the payload for POST /follow-harvest.
type HarvestRequest struct {
	// Handle is the target account. A leading "@" is stripped. Required.
	Handle string `json:"handle"`

	// MaxFollowers is the number of records to collect.
	// Default: 100.
	MaxFollowers int `json:"maxFollowers,omitempty"`

	// Username is the login identifier of the account used to browse. Required.
	Username string `json:"username"`

	// Password is the login secret. Required.
	Password string `json:"password"`
}

// Normalize trims the inputs, strips the "@" prefix from the handle and
// clamps MaxFollowers into [1, limit]. A non-positive MaxFollowers becomes
// def; a non-positive limit disables clamping.
func (r *HarvestRequest) Normalize(def, limit int) {
	r.Handle = strings.TrimPrefix(strings.TrimSpace(r.Handle), "@")
	r.Username = strings.TrimSpace(r.Username)
	if r.MaxFollowers <= 0 {
		r.MaxFollowers = def
	}
	if limit > 0 && r.MaxFollowers > limit {
		r.MaxFollowers = limit
	}
}

// Validate reports the first missing required field as an
// ErrCodeInvalidInput error. Call Normalize first.
func (r *HarvestRequest) Validate() *HarvestError {
	if r.Handle == "" {
		return NewHarvestError(ErrCodeInvalidInput, MsgHandleRequired, nil)
	}
	if r.Username == "" || r.Password == "" {
		return NewHarvestError(ErrCodeInvalidInput, MsgCredentialsRequired, nil)
	}
	return nil
}
