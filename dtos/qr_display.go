package dtos

import "time"

// QrDisplay is polled by event screens and kiosk terminals. The payload stays
// stable within one rotation window; seconds_remaining counts down to the
// next rotation.
type QrDisplay struct {
	Payload          string    `json:"payload"`
	ExpiresAt        time.Time `json:"expires_at"`
	SecondsRemaining int       `json:"seconds_remaining"`
	RotationSeconds  int       `json:"rotation_seconds"`
}
