package repositories

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository              *UserRepository
	TokenRepository             *TokenRepository
	VerificationTokenRepository *VerificationTokenRepository
	SocietyRepository           *SocietyRepository
	MembershipRepository        *MembershipRepository
	EventRepository             *EventRepository
	NewsRepository              *NewsRepository
	PaymentRepository           *PaymentRepository
	WidgetRepository            *WidgetRepository
	PollRepository              *PollRepository
	GalleryRepository           *GalleryRepository
	CommentRepository           *CommentRepository
	MatchRepository             *MatchRepository
	HallOfFameRepository        *HallOfFameRepository
	SearchRepository            *SearchRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:              NewUserRepository(db),
		TokenRepository:             NewTokenRepository(db),
		VerificationTokenRepository: NewVerificationTokenRepository(db),
		SocietyRepository:           NewSocietyRepository(db),
		MembershipRepository:        NewMembershipRepository(db),
		EventRepository:             NewEventRepository(db),
		NewsRepository:              NewNewsRepository(db),
		PaymentRepository:           NewPaymentRepository(db),
		WidgetRepository:            NewWidgetRepository(db),
		PollRepository:              NewPollRepository(db),
		GalleryRepository:           NewGalleryRepository(db),
		CommentRepository:           NewCommentRepository(db),
		MatchRepository:             NewMatchRepository(db),
		HallOfFameRepository:        NewHallOfFameRepository(db),
		SearchRepository:            NewSearchRepository(db),
	}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
