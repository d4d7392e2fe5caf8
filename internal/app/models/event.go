package models

import "time"

// EventType categorises events
type EventType string

const (
	EventTypeSocial   EventType = "social"
	EventTypeAcademic EventType = "academic"
	EventTypeSports   EventType = "sports"
	EventTypeWorkshop EventType = "workshop"
	EventTypeCareers  EventType = "careers"
	EventTypeOther    EventType = "other"
)

// Event is hosted by one or more societies
type Event struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Location    string    `json:"location" db:"location"`
	StartsAt    time.Time `json:"startsAt" db:"starts_at"`
	EndsAt      time.Time `json:"endsAt" db:"ends_at"`
	Type        EventType `json:"type" db:"type"`
	Capacity    *int      `json:"capacity,omitempty" db:"capacity"`
	Fee         int64     `json:"fee" db:"fee"`
	IsFree      bool      `json:"isFree" db:"is_free"`
	CreatedBy   int64     `json:"createdBy" db:"created_by"`
	SocietyIDs  []int64   `json:"societyIds" db:"-"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	AcceptedCount   int `json:"acceptedCount" db:"-"`
	WaitlistedCount int `json:"waitlistedCount" db:"-"`
}

// HasStarted reports whether the event start time has passed
func (e *Event) HasStarted(now time.Time) bool {
	return !now.Before(e.StartsAt)
}

// SpotsLeft returns the remaining accepted places, or nil for unlimited events
func (e *Event) SpotsLeft() *int {
	if e.Capacity == nil {
		return nil
	}
	left := *e.Capacity - e.AcceptedCount
	if left < 0 {
		left = 0
	}
	return &left
}

// RegistrationStatus is the outcome of an event registration
type RegistrationStatus string

const (
	RegistrationAccepted   RegistrationStatus = "accepted"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationRejected   RegistrationStatus = "rejected"
)

// EventRegistration records a user's place at an event
type EventRegistration struct {
	ID        int64              `json:"id" db:"id"`
	EventID   int64              `json:"eventId" db:"event_id"`
	UserID    int64              `json:"userId" db:"user_id"`
	Status    RegistrationStatus `json:"status" db:"status"`
	CreatedAt time.Time          `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" db:"updated_at"`

	User *UserSummary `json:"user,omitempty" db:"-"`
}

// DecideRegistrationStatus returns accepted while the event has room, waitlisted otherwise.
// A nil capacity means unlimited.
func DecideRegistrationStatus(capacity *int, accepted int) RegistrationStatus {
	if capacity == nil || accepted < *capacity {
		return RegistrationAccepted
	}
	return RegistrationWaitlisted
}

// EventFilter holds list query parameters
type EventFilter struct {
	SocietyID *int64
	Type      *EventType
	Free      *bool
	From      *time.Time
	To        *time.Time
	Available bool
	Search    *string
	Now       time.Time
	Page      int
	PageSize  int
}
