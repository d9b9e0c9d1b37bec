package dtos

// CheckinStatus is the read-model a client polls before attempting a scan,
// so it can render wait/limit state without consuming an attempt.
type CheckinStatus struct {
	CanCheckin        bool `json:"can_checkin"`
	CheckinsRemaining int  `json:"checkins_remaining"`
	WaitTimeSeconds   int  `json:"wait_time_seconds"`
	TotalPointsEarned int  `json:"total_points_earned"`
}
