package dto

import "github.com/yigit/societyhub/internal/app/models"

// CreateWidgetRequest adds a widget to the end of a society page
type CreateWidgetRequest struct {
	Type    models.WidgetType      `json:"type" binding:"required,oneof=text gallery poll leaderboard events news comments hall_of_fame"`
	Title   string                 `json:"title" binding:"required,max=120"`
	Config  map[string]interface{} `json:"config"`
	Visible *bool                  `json:"visible"`
}

// UpdateWidgetRequest represents editable widget fields
type UpdateWidgetRequest struct {
	Title   *string                `json:"title" binding:"omitempty,max=120"`
	Config  map[string]interface{} `json:"config"`
	Visible *bool                  `json:"visible"`
}

// ReorderWidgetsRequest lists every widget id of the society in display order
type ReorderWidgetsRequest struct {
	WidgetIDs []int64 `json:"widgetIds" binding:"required,min=1"`
}
