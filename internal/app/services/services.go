package services

import "time"

// Policy holds the tunable society and account rules
type Policy struct {
	MaxOwnedSocieties       int
	DeletionMemberThreshold int
	Currency                string

	// Account verification lifecycle
	ActivationTokenTTL time.Duration
	ActivationWindow   time.Duration
	ReverifyAfter      time.Duration
	ReverifyGrace      time.Duration
	DeleteAfter        time.Duration
}

// DefaultPolicy returns the values used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		MaxOwnedSocieties:       3,
		DeletionMemberThreshold: 10,
		Currency:                "gbp",
		ActivationTokenTTL:      48 * time.Hour,
		ActivationWindow:        7 * 24 * time.Hour,
		ReverifyAfter:           365 * 24 * time.Hour,
		ReverifyGrace:           14 * 24 * time.Hour,
		DeleteAfter:             30 * 24 * time.Hour,
	}
}
