package models

import "time"

// News is a society announcement, either a draft or published
type News struct {
	ID          int64      `json:"id" db:"id"`
	SocietyID   int64      `json:"societyId" db:"society_id"`
	EventID     *int64     `json:"eventId,omitempty" db:"event_id"`
	Title       string     `json:"title" db:"title"`
	Content     string     `json:"content" db:"content"`
	ImageURL    *string    `json:"imageUrl,omitempty" db:"image_url"`
	Published   bool       `json:"published" db:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" db:"published_at"`
	Views       int64      `json:"views" db:"views"`
	AuthorID    int64      `json:"authorId" db:"author_id"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// DraftForEvent builds the unpublished announcement created alongside a new event
func DraftForEvent(event *Event, societyID int64) *News {
	return &News{
		SocietyID: societyID,
		Title:     event.Name,
		Content:   event.Description,
		AuthorID:  event.CreatedBy,
	}
}

// NewsFilter holds list query parameters
type NewsFilter struct {
	SocietyID *int64
	EventID   *int64
	Page      int
	PageSize  int
}
