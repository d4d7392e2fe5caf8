package dto

import (
	"time"

	"github.com/yigit/societyhub/internal/app/models"
)

// CreatePollRequest creates a poll with its questions and options
type CreatePollRequest struct {
	Title       string                  `json:"title" binding:"required,max=200"`
	Description string                  `json:"description"`
	ClosesAt    *time.Time              `json:"closesAt"`
	Questions   []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// CreateQuestionRequest is one poll question
type CreateQuestionRequest struct {
	Text          string   `json:"text" binding:"required"`
	AllowMultiple bool     `json:"allowMultiple"`
	Options       []string `json:"options" binding:"required,min=2,dive,required"`
}

// VoteRequest selects an option
type VoteRequest struct {
	OptionID int64 `json:"optionId" binding:"required,min=1"`
}

// CreateGalleryRequest names a new gallery
type CreateGalleryRequest struct {
	Title string `json:"title" binding:"required,max=120"`
}

// CreateCommentRequest posts on a society wall
type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// CreateMatchRequest records a played match
type CreateMatchRequest struct {
	Title    string    `json:"title" binding:"required,max=200"`
	PlayedAt time.Time `json:"playedAt" binding:"required"`
	Notes    string    `json:"notes"`
}

// RateMemberRequest scores a member for a match
type RateMemberRequest struct {
	UserID  int64  `json:"userId" binding:"required,min=1"`
	Rating  int    `json:"rating" binding:"required,min=1,max=10"`
	Comment string `json:"comment" binding:"max=500"`
}

// CreateHallOfFameRequest awards a member
type CreateHallOfFameRequest struct {
	UserID      int64      `json:"userId" binding:"required,min=1"`
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description"`
	AwardedAt   *time.Time `json:"awardedAt"`
}

// MatchDetailResponse is a match with the ratings given for it
type MatchDetailResponse struct {
	models.Match
	Ratings []models.MemberRating `json:"ratings"`
}
