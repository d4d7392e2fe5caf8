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
	"github.com/yigit/societyhub/internal/pkg/helpers"
	"github.com/yigit/societyhub/internal/pkg/logger"
)

// IEventRepository defines event and registration persistence
type IEventRepository interface {
	// CreateWithDraft inserts the event, its hosting societies and an unpublished news draft
	CreateWithDraft(ctx context.Context, event *models.Event) (*models.News, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int64, error)
	// Update saves the event and returns waitlisted registrations accepted into new room
	Update(ctx context.Context, event *models.Event) ([]models.EventRegistration, error)
	Delete(ctx context.Context, id int64) error

	Register(ctx context.Context, eventID, userID int64) (*models.EventRegistration, error)
	GetRegistration(ctx context.Context, id int64) (*models.EventRegistration, error)
	// CancelRegistration deletes the user's registration and returns the promoted one, if any
	CancelRegistration(ctx context.Context, eventID, userID int64) (*models.EventRegistration, error)
	RejectRegistration(ctx context.Context, registrationID int64) (*models.EventRegistration, error)
	ListRegistrations(ctx context.Context, eventID int64) ([]models.EventRegistration, error)
	ListRegistrationsForUser(ctx context.Context, userID int64) ([]models.EventRegistration, error)
}

const (
	acceptedCountColumn   = "(SELECT COUNT(*) FROM event_registrations r WHERE r.event_id = e.id AND r.status = 'accepted')"
	waitlistedCountColumn = "(SELECT COUNT(*) FROM event_registrations r WHERE r.event_id = e.id AND r.status = 'waitlisted')"
	societyIDsColumn      = "ARRAY(SELECT es.society_id FROM event_societies es WHERE es.event_id = e.id ORDER BY es.society_id)"
)

var eventColumns = []string{
	"e.id", "e.name", "e.description", "e.location", "e.starts_at", "e.ends_at", "e.type",
	"e.capacity", "e.fee", "e.is_free", "COALESCE(e.created_by, 0)", "e.created_at", "e.updated_at",
	acceptedCountColumn, waitlistedCountColumn, societyIDsColumn,
}

var registrationColumns = []string{
	"r.id", "r.event_id", "r.user_id", "r.status", "r.created_at", "r.updated_at",
	"u.email", "u.first_name", "u.last_name",
}

// EventRepository handles event database operations
type EventRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.Type,
		&e.Capacity, &e.Fee, &e.IsFree, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		&e.AcceptedCount, &e.WaitlistedCount, &e.SocietyIDs,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanRegistration(row pgx.Row) (*models.EventRegistration, error) {
	reg := &models.EventRegistration{User: &models.UserSummary{}}
	err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.CreatedAt, &reg.UpdatedAt,
		&reg.User.Email, &reg.User.FirstName, &reg.User.LastName)
	if err != nil {
		return nil, err
	}
	reg.User.ID = reg.UserID
	return reg, nil
}

// CreateWithDraft inserts an event with its hosts and the auto-drafted announcement
func (r *EventRepository) CreateWithDraft(ctx context.Context, event *models.Event) (*models.News, error) {
	if len(event.SocietyIDs) == 0 {
		return nil, apperrors.NewValidationError("an event needs at least one hosting society")
	}

	var draft *models.News
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("events").
			Columns("name", "description", "location", "starts_at", "ends_at", "type", "capacity", "fee", "is_free", "created_by").
			Values(event.Name, event.Description, event.Location, event.StartsAt, event.EndsAt, event.Type,
				event.Capacity, event.Fee, event.IsFree, event.CreatedBy).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create event query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt); err != nil {
			if dberrors.IsCheckViolation(err) {
				return apperrors.NewValidationError("event dates, fee or capacity are inconsistent")
			}
			return fmt.Errorf("error creating event: %w", err)
		}

		hosts := r.sb.Insert("event_societies").Columns("event_id", "society_id")
		for _, societyID := range event.SocietyIDs {
			hosts = hosts.Values(event.ID, societyID)
		}
		sql, args, err = hosts.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build event societies query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			if dberrors.IsForeignKeyViolation(err) {
				return apperrors.ErrSocietyNotFound
			}
			return fmt.Errorf("error linking event societies: %w", err)
		}

		draft = models.DraftForEvent(event, event.SocietyIDs[0])
		draft.EventID = &event.ID
		return insertNews(ctx, tx, r.sb, draft)
	})
	if err != nil {
		logger.Error().Err(err).Str("name", event.Name).Msg("Error creating event")
		return nil, err
	}
	return draft, nil
}

// GetByID retrieves an event with its registration counts
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return getEvent(ctx, r.db, r.sb, id)
}

func getEvent(ctx context.Context, q db.Querier, sb squirrel.StatementBuilderType, id int64) (*models.Event, error) {
	sql, args, err := sb.Select(eventColumns...).From("events e").Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}

	event, err := scanEvent(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("error getting event: %w", err)
	}
	return event, nil
}

// lockEvent takes the row lock that serialises registrations for one event.
// Counts must be read after it in a new statement.
func lockEvent(ctx context.Context, tx pgx.Tx, eventID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrEventNotFound
		}
		return fmt.Errorf("error locking event: %w", err)
	}
	return nil
}

// List returns events matching the filter, upcoming only unless a From bound is given
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int64, error) {
	conds := squirrel.And{}
	if filter.From != nil {
		conds = append(conds, squirrel.GtOrEq{"e.starts_at": *filter.From})
	} else {
		conds = append(conds, squirrel.GtOrEq{"e.starts_at": filter.Now})
	}
	if filter.To != nil {
		conds = append(conds, squirrel.LtOrEq{"e.starts_at": *filter.To})
	}
	if filter.SocietyID != nil {
		conds = append(conds, squirrel.Expr(
			"EXISTS (SELECT 1 FROM event_societies es WHERE es.event_id = e.id AND es.society_id = ?)", *filter.SocietyID))
	}
	if filter.Type != nil {
		conds = append(conds, squirrel.Eq{"e.type": *filter.Type})
	}
	if filter.Free != nil {
		conds = append(conds, squirrel.Eq{"e.is_free": *filter.Free})
	}
	if filter.Search != nil && *filter.Search != "" {
		conds = append(conds, squirrel.ILike{"e.name": helpers.ContainsPattern(*filter.Search)})
	}
	if filter.Available {
		conds = append(conds,
			squirrel.Gt{"e.starts_at": filter.Now},
			squirrel.Expr("(e.capacity IS NULL OR "+acceptedCountColumn+" < e.capacity)"))
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("events e").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count events query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting events: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.PageSize)
	sql, args, err := r.sb.Select(eventColumns...).From("events e").Where(conds).
		OrderBy("e.starts_at ASC", "e.id ASC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list events query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying events")
		return nil, 0, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	return events, total, rows.Err()
}

// Update saves editable event fields. Lowering the capacity never touches accepted
// registrations; raising or clearing it accepts waitlisted ones while room remains.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) ([]models.EventRegistration, error) {
	sql, args, err := r.sb.Update("events").
		Set("name", event.Name).
		Set("description", event.Description).
		Set("location", event.Location).
		Set("starts_at", event.StartsAt).
		Set("ends_at", event.EndsAt).
		Set("type", event.Type).
		Set("capacity", event.Capacity).
		Set("fee", event.Fee).
		Set("is_free", event.IsFree).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": event.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update event query: %w", err)
	}

	var promoted []models.EventRegistration
	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockEvent(ctx, tx, event.ID); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&event.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrEventNotFound
			}
			if dberrors.IsCheckViolation(err) {
				return apperrors.NewValidationError("event dates, fee or capacity are inconsistent")
			}
			return fmt.Errorf("error updating event: %w", err)
		}

		for {
			reg, err := r.promoteWaitlisted(ctx, tx, event.ID)
			if err != nil {
				return err
			}
			if reg == nil {
				return nil
			}
			promoted = append(promoted, *reg)
		}
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// Delete removes an event; registrations and host links cascade
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}

// Register places the user on the event under a row lock, accepted while room remains
func (r *EventRepository) Register(ctx context.Context, eventID, userID int64) (*models.EventRegistration, error) {
	reg := &models.EventRegistration{EventID: eventID, UserID: userID}
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}
		event, err := getEvent(ctx, tx, r.sb, eventID)
		if err != nil {
			return err
		}
		reg.Status = models.DecideRegistrationStatus(event.Capacity, event.AcceptedCount)

		err = tx.QueryRow(ctx,
			`INSERT INTO event_registrations (event_id, user_id, status) VALUES ($1, $2, $3)
			 RETURNING id, created_at, updated_at`,
			eventID, userID, reg.Status).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "event_registrations_event_user_key") {
				return apperrors.ErrAlreadyRegistered
			}
			return fmt.Errorf("error creating registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// GetRegistration retrieves a registration by ID
func (r *EventRepository) GetRegistration(ctx context.Context, id int64) (*models.EventRegistration, error) {
	sql, args, err := r.selectRegistrations().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get registration query: %w", err)
	}

	reg, err := scanRegistration(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("error getting registration: %w", err)
	}
	return reg, nil
}

// CancelRegistration removes the user's registration and fills the freed place from the waitlist
func (r *EventRepository) CancelRegistration(ctx context.Context, eventID, userID int64) (*models.EventRegistration, error) {
	var promoted *models.EventRegistration
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
		if err != nil {
			return fmt.Errorf("error deleting registration: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrRegistrationNotFound
		}

		promoted, err = r.promoteWaitlisted(ctx, tx, eventID)
		return err
	})
	return promoted, err
}

// RejectRegistration marks a registration rejected and fills the freed place from the waitlist
func (r *EventRepository) RejectRegistration(ctx context.Context, registrationID int64) (*models.EventRegistration, error) {
	var promoted *models.EventRegistration
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var eventID int64
		err := tx.QueryRow(ctx, `SELECT event_id FROM event_registrations WHERE id = $1`, registrationID).Scan(&eventID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrRegistrationNotFound
			}
			return fmt.Errorf("error getting registration: %w", err)
		}
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`UPDATE event_registrations SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.RegistrationRejected, registrationID); err != nil {
			return fmt.Errorf("error rejecting registration: %w", err)
		}

		promoted, err = r.promoteWaitlisted(ctx, tx, eventID)
		return err
	})
	return promoted, err
}

// promoteWaitlisted accepts the oldest waitlisted registration when the event has room.
// Callers must hold the event row lock.
func (r *EventRepository) promoteWaitlisted(ctx context.Context, tx pgx.Tx, eventID int64) (*models.EventRegistration, error) {
	event, err := getEvent(ctx, tx, r.sb, eventID)
	if err != nil {
		return nil, err
	}
	if models.DecideRegistrationStatus(event.Capacity, event.AcceptedCount) != models.RegistrationAccepted {
		return nil, nil
	}

	var id int64
	err = tx.QueryRow(ctx,
		`UPDATE event_registrations SET status = $1, updated_at = NOW()
		 WHERE id = (
		     SELECT id FROM event_registrations
		     WHERE event_id = $2 AND status = $3
		     ORDER BY created_at ASC, id ASC
		     LIMIT 1
		 )
		 RETURNING id`,
		models.RegistrationAccepted, eventID, models.RegistrationWaitlisted).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error promoting waitlisted registration: %w", err)
	}

	sql, args, err := r.selectRegistrations().Where(squirrel.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get registration query: %w", err)
	}
	return scanRegistration(tx.QueryRow(ctx, sql, args...))
}

func (r *EventRepository) selectRegistrations() squirrel.SelectBuilder {
	return r.sb.Select(registrationColumns...).
		From("event_registrations r").
		Join("users u ON u.id = r.user_id")
}

// ListRegistrations lists registrations for an event in arrival order
func (r *EventRepository) ListRegistrations(ctx context.Context, eventID int64) ([]models.EventRegistration, error) {
	return r.listRegistrations(ctx, r.selectRegistrations().
		Where(squirrel.Eq{"r.event_id": eventID}).
		OrderBy("r.created_at ASC", "r.id ASC"))
}

// ListRegistrationsForUser lists a user's registrations, newest first
func (r *EventRepository) ListRegistrationsForUser(ctx context.Context, userID int64) ([]models.EventRegistration, error) {
	return r.listRegistrations(ctx, r.selectRegistrations().
		Where(squirrel.Eq{"r.user_id": userID}).
		OrderBy("r.created_at DESC"))
}

func (r *EventRepository) listRegistrations(ctx context.Context, q squirrel.SelectBuilder) ([]models.EventRegistration, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list registrations query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying registrations: %w", err)
	}
	defer rows.Close()

	regs := []models.EventRegistration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning registration row: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}
