package harvest

import "github.com/use-agent/followharvest/models"

// Assemble builds the success result. followerCount is the displayed total
// and is independent of how many records were collected.
func Assemble(handle string, followerCount int, records []models.FollowerRecord) *models.HarvestResponse {
	if records == nil {
		records = []models.FollowerRecord{}
	}
	return &models.HarvestResponse{
		Success:       true,
		Handle:        handle,
		FollowerCount: followerCount,
		Followers:     records,
		TotalFetched:  len(records),
	}
}

// Unreachable builds the result for a target whose followers cannot be
// read.
func Unreachable() *models.HarvestResponse {
	return &models.HarvestResponse{
		Success: false,
		Error:   models.MsgNotAccessible,
		Code:    models.ErrCodeNotAccessible,
	}
}
