package models

import (
	"sort"
	"time"
)

// Poll groups questions asked to society members
type Poll struct {
	ID          int64      `json:"id" db:"id"`
	SocietyID   int64      `json:"societyId" db:"society_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	ClosesAt    *time.Time `json:"closesAt,omitempty" db:"closes_at"`
	CreatedBy   int64      `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	Questions   []Question `json:"questions" db:"-"`
}

// IsOpen reports whether votes are still accepted
func (p *Poll) IsOpen(now time.Time) bool {
	return p.IsActive && (p.ClosesAt == nil || now.Before(*p.ClosesAt))
}

// Question belongs to a poll
type Question struct {
	ID            int64    `json:"id" db:"id"`
	PollID        int64    `json:"pollId" db:"poll_id"`
	Text          string   `json:"text" db:"text"`
	AllowMultiple bool     `json:"allowMultiple" db:"allow_multiple"`
	Position      int      `json:"position" db:"position"`
	Options       []Option `json:"options" db:"-"`
}

// Option is one answer to a question, with its tally
type Option struct {
	ID         int64  `json:"id" db:"id"`
	QuestionID int64  `json:"questionId" db:"question_id"`
	Text       string `json:"text" db:"text"`
	Votes      int    `json:"votes" db:"-"`
}

// Vote is a user's choice of an option
type Vote struct {
	ID        int64     `json:"id" db:"id"`
	OptionID  int64     `json:"optionId" db:"option_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// OptionTarget locates the question, poll and society an option belongs to
type OptionTarget struct {
	OptionID      int64
	QuestionID    int64
	PollID        int64
	SocietyID     int64
	AllowMultiple bool
}

// Gallery is a named image collection
type Gallery struct {
	ID        int64     `json:"id" db:"id"`
	SocietyID int64     `json:"societyId" db:"society_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	Images    []Image   `json:"images,omitempty" db:"-"`
}

// Image is stored through filestorage
type Image struct {
	ID         int64     `json:"id" db:"id"`
	GalleryID  int64     `json:"galleryId" db:"gallery_id"`
	URL        string    `json:"url" db:"url"`
	Caption    string    `json:"caption" db:"caption"`
	UploadedBy int64     `json:"uploadedBy" db:"uploaded_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Comment is posted on a society wall
type Comment struct {
	ID        int64        `json:"id" db:"id"`
	SocietyID int64        `json:"societyId" db:"society_id"`
	UserID    int64        `json:"userId" db:"user_id"`
	Content   string       `json:"content" db:"content"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	User      *UserSummary `json:"user,omitempty" db:"-"`
}

// Match is a played fixture members are rated on
type Match struct {
	ID        int64     `json:"id" db:"id"`
	SocietyID int64     `json:"societyId" db:"society_id"`
	Title     string    `json:"title" db:"title"`
	PlayedAt  time.Time `json:"playedAt" db:"played_at"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MemberRating scores one member's performance in a match
type MemberRating struct {
	ID        int64     `json:"id" db:"id"`
	MatchID   int64     `json:"matchId" db:"match_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	RatedBy   int64     `json:"ratedBy" db:"rated_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

const (
	MinRating = 1
	MaxRating = 10
)

// LeaderboardEntry aggregates a member's ratings
type LeaderboardEntry struct {
	UserID        int64        `json:"userId"`
	AverageRating float64      `json:"averageRating"`
	RatingCount   int          `json:"ratingCount"`
	User          *UserSummary `json:"user,omitempty"`
}

// RankLeaderboard orders entries by average rating, then rating count, then user id
func RankLeaderboard(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.AverageRating != b.AverageRating {
			return a.AverageRating > b.AverageRating
		}
		if a.RatingCount != b.RatingCount {
			return a.RatingCount > b.RatingCount
		}
		return a.UserID < b.UserID
	})
}

// HallOfFame records an award given to a member
type HallOfFame struct {
	ID          int64        `json:"id" db:"id"`
	SocietyID   int64        `json:"societyId" db:"society_id"`
	UserID      int64        `json:"userId" db:"user_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	AwardedAt   time.Time    `json:"awardedAt" db:"awarded_at"`
	User        *UserSummary `json:"user,omitempty" db:"-"`
}
