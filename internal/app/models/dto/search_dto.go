package dto

import "time"

// SearchResult is one hit across societies and events
type SearchResult struct {
	Kind     string     `json:"kind" example:"society" enums:"society,event"`
	ID       int64      `json:"id"`
	Name     string     `json:"name"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
}

// SearchResponse carries results and the corrected query when one was applied
type SearchResponse struct {
	Query       string         `json:"query"`
	DidYouMean  *string        `json:"didYouMean,omitempty"`
	Societies   []SearchResult `json:"societies"`
	Events      []SearchResult `json:"events"`
	TotalResult int            `json:"totalResults"`
}
