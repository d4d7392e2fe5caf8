package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/societyhub/internal/app/models"
	"github.com/yigit/societyhub/internal/db"
	"github.com/yigit/societyhub/internal/pkg/apperrors"
	"github.com/yigit/societyhub/internal/pkg/dberrors"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// IPollRepository defines poll persistence
type IPollRepository interface {
	// CreatePoll inserts the poll with its questions and options
	CreatePoll(ctx context.Context, poll *models.Poll) error
	// GetPoll loads the poll with questions, options and vote tallies
	GetPoll(ctx context.Context, id int64) (*models.Poll, error)
	ListPolls(ctx context.Context, societyID int64) ([]models.Poll, error)
	GetOptionTarget(ctx context.Context, optionID int64) (*models.OptionTarget, error)
	Vote(ctx context.Context, target *models.OptionTarget, userID int64) (*models.Vote, error)
	ClosePoll(ctx context.Context, id int64) error
	DeletePoll(ctx context.Context, id int64) error
}

var pollColumns = []string{"id", "society_id", "title", "description", "is_active", "closes_at", "COALESCE(created_by, 0)", "created_at"}

// PollRepository handles poll database operations
type PollRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewPollRepository creates a new PollRepository
func NewPollRepository(db *pgxpool.Pool) *PollRepository {
	return &PollRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanPoll(row pgx.Row) (*models.Poll, error) {
	p := &models.Poll{}
	if err := row.Scan(&p.ID, &p.SocietyID, &p.Title, &p.Description, &p.IsActive, &p.ClosesAt, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePoll inserts a poll tree in one transaction
func (r *PollRepository) CreatePoll(ctx context.Context, poll *models.Poll) error {
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO polls (society_id, title, description, is_active, closes_at, created_by)
			 VALUES ($1, $2, $3, TRUE, $4, $5) RETURNING id, is_active, created_at`,
			poll.SocietyID, poll.Title, poll.Description, poll.ClosesAt, poll.CreatedBy,
		).Scan(&poll.ID, &poll.IsActive, &poll.CreatedAt)
		if err != nil {
			return fmt.Errorf("error creating poll: %w", err)
		}

		for qi := range poll.Questions {
			q := &poll.Questions[qi]
			q.PollID = poll.ID
			q.Position = qi
			err := tx.QueryRow(ctx,
				`INSERT INTO poll_questions (poll_id, text, allow_multiple, position) VALUES ($1, $2, $3, $4) RETURNING id`,
				q.PollID, q.Text, q.AllowMultiple, q.Position,
			).Scan(&q.ID)
			if err != nil {
				return fmt.Errorf("error creating poll question: %w", err)
			}

			for oi := range q.Options {
				o := &q.Options[oi]
				o.QuestionID = q.ID
				if err := tx.QueryRow(ctx,
					`INSERT INTO poll_options (question_id, text) VALUES ($1, $2) RETURNING id`,
					o.QuestionID, o.Text,
				).Scan(&o.ID); err != nil {
					return fmt.Errorf("error creating poll option: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int64("societyID", poll.SocietyID).Msg("Error creating poll")
	}
	return err
}

// GetPoll retrieves a poll tree with tallies
func (r *PollRepository) GetPoll(ctx context.Context, id int64) (*models.Poll, error) {
	sql, args, err := r.sb.Select(pollColumns...).From("polls").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get poll query: %w", err)
	}

	poll, err := scanPoll(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPollNotFound
		}
		return nil, fmt.Errorf("error getting poll: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT q.id, q.text, q.allow_multiple, q.position, o.id, o.text, COUNT(v.id)
		 FROM poll_questions q
		 LEFT JOIN poll_options o ON o.question_id = q.id
		 LEFT JOIN poll_votes v ON v.option_id = o.id
		 WHERE q.poll_id = $1
		 GROUP BY q.id, o.id
		 ORDER BY q.position ASC, q.id ASC, o.id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("error querying poll questions: %w", err)
	}
	defer rows.Close()

	poll.Questions = []models.Question{}
	for rows.Next() {
		var (
			q          models.Question
			optionID   *int64
			optionText *string
			votes      int
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.AllowMultiple, &q.Position, &optionID, &optionText, &votes); err != nil {
			return nil, fmt.Errorf("error scanning poll question row: %w", err)
		}

		n := len(poll.Questions)
		if n == 0 || poll.Questions[n-1].ID != q.ID {
			q.PollID = poll.ID
			q.Options = []models.Option{}
			poll.Questions = append(poll.Questions, q)
			n++
		}
		if optionID != nil {
			poll.Questions[n-1].Options = append(poll.Questions[n-1].Options, models.Option{
				ID:         *optionID,
				QuestionID: q.ID,
				Text:       *optionText,
				Votes:      votes,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading poll questions: %w", err)
	}
	return poll, nil
}

// ListPolls lists a society's polls without their questions
func (r *PollRepository) ListPolls(ctx context.Context, societyID int64) ([]models.Poll, error) {
	sql, args, err := r.sb.Select(pollColumns...).From("polls").
		Where(squirrel.Eq{"society_id": societyID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list polls query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying polls: %w", err)
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning poll row: %w", err)
		}
		polls = append(polls, *p)
	}
	return polls, rows.Err()
}

// GetOptionTarget resolves the question, poll and society of an option
func (r *PollRepository) GetOptionTarget(ctx context.Context, optionID int64) (*models.OptionTarget, error) {
	t := &models.OptionTarget{OptionID: optionID}
	err := r.db.QueryRow(ctx,
		`SELECT q.id, p.id, p.society_id, q.allow_multiple
		 FROM poll_options o
		 JOIN poll_questions q ON q.id = o.question_id
		 JOIN polls p ON p.id = q.poll_id
		 WHERE o.id = $1`, optionID,
	).Scan(&t.QuestionID, &t.PollID, &t.SocietyID, &t.AllowMultiple)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewResourceNotFoundError("poll option not found")
		}
		return nil, fmt.Errorf("error getting poll option: %w", err)
	}
	return t, nil
}

// Vote records a vote; single-choice questions accept one vote per user
func (r *PollRepository) Vote(ctx context.Context, target *models.OptionTarget, userID int64) (*models.Vote, error) {
	vote := &models.Vote{OptionID: target.OptionID, UserID: userID}
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT id FROM poll_questions WHERE id = $1 FOR UPDATE`, target.QuestionID); err != nil {
			return fmt.Errorf("error locking poll question: %w", err)
		}

		if !target.AllowMultiple {
			var voted bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (
				     SELECT 1 FROM poll_votes v JOIN poll_options o ON o.id = v.option_id
				     WHERE o.question_id = $1 AND v.user_id = $2
				 )`, target.QuestionID, userID).Scan(&voted)
			if err != nil {
				return fmt.Errorf("error checking existing vote: %w", err)
			}
			if voted {
				return apperrors.ErrAlreadyVoted
			}
		}

		err := tx.QueryRow(ctx,
			`INSERT INTO poll_votes (option_id, user_id) VALUES ($1, $2) RETURNING id, created_at`,
			target.OptionID, userID).Scan(&vote.ID, &vote.CreatedAt)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "poll_votes_option_user_key") {
				return apperrors.ErrAlreadyVoted
			}
			return fmt.Errorf("error creating vote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vote, nil
}

// ClosePoll stops a poll from accepting votes
func (r *PollRepository) ClosePoll(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE polls SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error closing poll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPollNotFound
	}
	return nil
}

// DeletePoll removes a poll; questions, options and votes cascade
func (r *PollRepository) DeletePoll(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM polls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting poll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPollNotFound
	}
	return nil
}
