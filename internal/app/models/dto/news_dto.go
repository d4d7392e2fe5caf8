package dto

// CreateNewsRequest represents a new news draft
type CreateNewsRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required"`
	EventID *int64 `json:"eventId" binding:"omitempty,min=1"`
}

// UpdateNewsRequest represents editable news fields
type UpdateNewsRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=200"`
	Content *string `json:"content"`
}

// NewsFilterRequest holds query parameters for listing published news
type NewsFilterRequest struct {
	SocietyID *int64 `form:"societyId"`
	EventID   *int64 `form:"eventId"`
	Page      int    `form:"page,default=1" binding:"min=1"`
	PageSize  int    `form:"size,default=10" binding:"min=1,max=100"`
}
