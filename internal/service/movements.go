package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/laefree/ibdiary/core/logger"
	"github.com/laefree/ibdiary/internal/model"
)

// ErrMovementNotFound is returned when a referenced diary record no
// longer exists, e.g. it was deleted out-of-band while a conversation
// still pointed at it.
var ErrMovementNotFound = errors.New("movement not found")

const movementColumns = `id, user_id, date, time, notes, stool_consistency, blood_lvl, mucus, false_urge, created_at`

// Movements manages diary records. The conversation layer references a
// record only by id; the full row lives here.
type Movements struct {
	db *sqlx.DB
}

// NewMovements binds the service to a connection pool.
func NewMovements(db *sqlx.DB) *Movements {
	return &Movements{db: db}
}

// Create inserts a fresh record with only the owner set; date and time
// come from column defaults.
func (s *Movements) Create(ctx context.Context, userID int64) (*model.Movement, error) {
	start := time.Now()
	var m model.Movement
	err := s.db.GetContext(ctx, &m,
		`INSERT INTO bowel_movements (user_id) VALUES ($1) RETURNING `+movementColumns, userID)
	if err != nil {
		return nil, fmt.Errorf("create movement: %w", err)
	}
	logger.SVCMovements.Debug("movement created",
		slog.String("event", "create"),
		slog.Int64("user_id", userID),
		slog.Int64("movement_id", m.ID),
		slog.Duration("duration", logger.Took(start)),
	)
	return &m, nil
}

// GetByID loads a record or reports ErrMovementNotFound.
func (s *Movements) GetByID(ctx context.Context, id int64) (*model.Movement, error) {
	var m model.Movement
	err := s.db.GetContext(ctx, &m,
		`SELECT `+movementColumns+` FROM bowel_movements WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return &m, nil
}

// Update applies the non-nil patch fields to the record and returns the
// updated row. A patch applied to a vanished record reports
// ErrMovementNotFound. Repeating the same patch is idempotent, which
// keeps retried transitions safe.
func (s *Movements) Update(ctx context.Context, id int64, patch model.MovementPatch) (*model.Movement, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	args = append(args, id)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.Consistency != nil {
		add("stool_consistency", *patch.Consistency)
	}
	if patch.BloodLevel != nil {
		add("blood_lvl", *patch.BloodLevel)
	}
	if patch.Mucus != nil {
		add("mucus", *patch.Mucus)
	}
	if patch.FalseUrge != nil {
		add("false_urge", *patch.FalseUrge)
	}
	if len(sets) == 0 {
		return s.GetByID(ctx, id)
	}

	var m model.Movement
	err := s.db.GetContext(ctx, &m,
		`UPDATE bowel_movements SET `+strings.Join(sets, ", ")+
			` WHERE id = $1 RETURNING `+movementColumns, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update movement: %w", err)
	}
	return &m, nil
}

// Delete removes a record. Deleting an already-deleted record is a
// no-op, not an error.
func (s *Movements) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bowel_movements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.SVCMovements.Debug("delete skipped",
			slog.String("event", "delete"),
			slog.String("status", "skip"),
			slog.Int64("movement_id", id),
		)
	}
	return nil
}
