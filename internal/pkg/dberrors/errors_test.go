package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintDetection(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "memberships_society_user_key"})
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "events_created_by_fkey"}

	assert.True(t, IsDuplicateConstraintError(dup, "memberships_society_user_key"))
	assert.False(t, IsDuplicateConstraintError(dup, "other_key"))
	assert.True(t, IsUniqueViolation(dup))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsCheckViolation(errors.New("plain")))
}
