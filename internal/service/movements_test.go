package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laefree/ibdiary/internal/model"
)

func movementRow(id, userID int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "date", "time", "notes",
		"stool_consistency", "blood_lvl", "mucus", "false_urge", "created_at",
	}).AddRow(id, userID, now, now, nil, nil, nil, nil, false, now)
}

func TestMovementsCreateReturnsRow(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewMovements(db)

	mock.ExpectQuery(`INSERT INTO bowel_movements \(user_id\) VALUES \(\$1\) RETURNING`).
		WithArgs(int64(5)).
		WillReturnRows(movementRow(7, 5))

	m, err := svc.Create(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.ID)
	assert.False(t, m.Consistency.Valid)
}

func TestMovementsGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewMovements(db)

	mock.ExpectQuery(`SELECT .+ FROM bowel_movements WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(movementRow(7, 5))
	mock.ExpectQuery(`SELECT .+ FROM bowel_movements WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.GetByID(context.Background(), 7)
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), 8)
	assert.ErrorIs(t, err, ErrMovementNotFound)
}

func TestMovementsUpdateBuildsPatch(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewMovements(db)

	blood := 0
	urge := true
	mock.ExpectQuery(`UPDATE bowel_movements SET blood_lvl = \$2, false_urge = \$3 WHERE id = \$1 RETURNING`).
		WithArgs(int64(7), 0, true).
		WillReturnRows(movementRow(7, 5))

	_, err := svc.Update(context.Background(), 7, model.MovementPatch{
		BloodLevel: &blood,
		FalseUrge:  &urge,
	})
	require.NoError(t, err)
}

func TestMovementsUpdateEmptyPatchReads(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewMovements(db)

	mock.ExpectQuery(`SELECT .+ FROM bowel_movements WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(movementRow(7, 5))

	m, err := svc.Update(context.Background(), 7, model.MovementPatch{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), m.ID)
}

func TestMovementsUpdateVanishedRecord(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewMovements(db)

	notes := "ok"
	mock.ExpectQuery(`UPDATE bowel_movements SET notes = \$2 WHERE id = \$1 RETURNING`).
		WithArgs(int64(7), "ok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Update(context.Background(), 7, model.MovementPatch{Notes: &notes})
	assert.ErrorIs(t, err, ErrMovementNotFound)
}

func TestMovementsDeleteMissingIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewMovements(db)

	mock.ExpectExec(`DELETE FROM bowel_movements WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, svc.Delete(context.Background(), 7))
}
