package models

import "time"

// WidgetType selects how a widget renders on the society page
type WidgetType string

const (
	WidgetText        WidgetType = "text"
	WidgetGallery     WidgetType = "gallery"
	WidgetPoll        WidgetType = "poll"
	WidgetLeaderboard WidgetType = "leaderboard"
	WidgetEvents      WidgetType = "events"
	WidgetNews        WidgetType = "news"
	WidgetComments    WidgetType = "comments"
	WidgetHallOfFame  WidgetType = "hall_of_fame"
)

// Widget is a configurable block on a society page
type Widget struct {
	ID        int64                  `json:"id" db:"id"`
	SocietyID int64                  `json:"societyId" db:"society_id"`
	Type      WidgetType             `json:"type" db:"type"`
	Title     string                 `json:"title" db:"title"`
	Config    map[string]interface{} `json:"config" db:"config"`
	Position  int                    `json:"position" db:"position"`
	Visible   bool                   `json:"visible" db:"visible"`
	CreatedAt time.Time              `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time              `json:"updatedAt" db:"updated_at"`
}
