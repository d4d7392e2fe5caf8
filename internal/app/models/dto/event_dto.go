package dto

import (
	"time"

	"github.com/yigit/societyhub/internal/app/models"
)

// CreateEventRequest represents a new event hosted by one or more societies
type CreateEventRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	Description string           `json:"description"`
	Location    string           `json:"location" binding:"required"`
	StartsAt    time.Time        `json:"startsAt" binding:"required"`
	EndsAt      time.Time        `json:"endsAt" binding:"required,gtfield=StartsAt"`
	Type        models.EventType `json:"type" binding:"required,oneof=social academic sports workshop careers other"`
	Capacity    *int             `json:"capacity" binding:"omitempty,min=1"`
	Fee         int64            `json:"fee" binding:"min=0"`
	IsFree      bool             `json:"isFree"`
	SocietyIDs  []int64          `json:"societyIds" binding:"required,min=1,dive,min=1"`
}

// UpdateEventRequest represents editable event fields; nil fields are left unchanged
type UpdateEventRequest struct {
	Name          *string           `json:"name" binding:"omitempty,max=200"`
	Description   *string           `json:"description"`
	Location      *string           `json:"location"`
	StartsAt      *time.Time        `json:"startsAt"`
	EndsAt        *time.Time        `json:"endsAt"`
	Type          *models.EventType `json:"type" binding:"omitempty,oneof=social academic sports workshop careers other"`
	Capacity      *int              `json:"capacity" binding:"omitempty,min=1"`
	ClearCapacity bool              `json:"clearCapacity"`
	Fee           *int64            `json:"fee" binding:"omitempty,min=0"`
	IsFree        *bool             `json:"isFree"`
}

// EventFilterRequest holds query parameters for listing events
type EventFilterRequest struct {
	SocietyID *int64     `form:"societyId"`
	Type      *string    `form:"type"`
	Free      *bool      `form:"free"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Available bool       `form:"available"`
	Search    *string    `form:"search"`
	Page      int        `form:"page,default=1" binding:"min=1"`
	PageSize  int        `form:"size,default=10" binding:"min=1,max=100"`
}

// EventResponse is an event with registration counts
type EventResponse struct {
	models.Event
	SpotsLeft *int `json:"spotsLeft"`
}

// FromEvent converts an event model
func FromEvent(e *models.Event) *EventResponse {
	if e == nil {
		return nil
	}
	return &EventResponse{Event: *e, SpotsLeft: e.SpotsLeft()}
}

// EventListResponse is a page of events
type EventListResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination PaginationInfo  `json:"pagination"`
}
