package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "noop"))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound, "find"), ErrNotFound)

	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: ConstraintRoomName})
	err := translate(dup, "create room")
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	assert.True(t, IsConstraint(err, ConstraintRoomName))
	assert.False(t, IsConstraint(err, ConstraintRoomJoinCode))

	fk := translate(&pgconn.PgError{Code: "23503", ConstraintName: "rooms_category_slug_fkey"}, "create room")
	assert.ErrorIs(t, fk, ErrForeignKey)
	assert.Equal(t, "rooms_category_slug_fkey", ConstraintName(fk))

	check := translate(&pgconn.PgError{Code: "23514", ConstraintName: ConstraintRoomVisibility}, "update room")
	assert.ErrorIs(t, check, ErrCheckViolation)

	other := translate(errors.New("connection reset"), "list rooms")
	assert.NotErrorIs(t, other, ErrNotFound)
	assert.Equal(t, "", ConstraintName(other))
	assert.Contains(t, other.Error(), "list rooms")
}
