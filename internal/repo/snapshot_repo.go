package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Admitto/internal/domain"
)

// SnapshotRepo — репозиторий операционного зеркала потоков (admission_flows).
//
// Таблица хранит по одной строке на пользователя: статус потока, текущий
// шаг и полное состояние шагов в JSONB. Сервис перезаписывает строку
// целиком после каждой мутации.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepo создаёт новый SnapshotRepo.
func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Save вставляет или полностью заменяет снимок потока пользователя.
func (r *SnapshotRepo) Save(ctx context.Context, snap *domain.FlowSnapshot) error {
	query := `
		INSERT INTO admission_flows (user_id, email, status, current_step, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			status = EXCLUDED.status,
			current_step = EXCLUDED.current_step,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		snap.UserID,
		snap.Email,
		string(snap.Status),
		snap.CurrentStep,
		[]byte(snap.State),
		snap.CreatedAt,
		snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GetByUserID возвращает снимок потока пользователя.
func (r *SnapshotRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.FlowSnapshot, error) {
	query := `
		SELECT user_id, email, status, current_step, state, created_at, updated_at
		FROM admission_flows
		WHERE user_id = $1
	`
	var (
		snap   domain.FlowSnapshot
		status string
		state  []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&snap.UserID,
		&snap.Email,
		&status,
		&snap.CurrentStep,
		&state,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot by user id: %w", err)
	}
	snap.Status = domain.FlowStatus(status)
	snap.State = state
	return &snap, nil
}

// Delete удаляет снимок потока пользователя.
func (r *SnapshotRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM admission_flows WHERE user_id = $1`
	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIdle возвращает потоки In Progress без активности с момента before.
// Строки отсортированы от самых давних, limit ограничивает размер пачки.
func (r *SnapshotRepo) ListIdle(ctx context.Context, before time.Time, limit int) ([]domain.FlowSnapshot, error) {
	query := `
		SELECT user_id, email, status, current_step, state, created_at, updated_at
		FROM admission_flows
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, string(domain.FlowStatusInProgress), before, limit)
	if err != nil {
		return nil, fmt.Errorf("list idle snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.FlowSnapshot
	for rows.Next() {
		var (
			snap   domain.FlowSnapshot
			status string
			state  []byte
		)
		if err := rows.Scan(
			&snap.UserID,
			&snap.Email,
			&status,
			&snap.CurrentStep,
			&state,
			&snap.CreatedAt,
			&snap.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Status = domain.FlowStatus(status)
		snap.State = state
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
