package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

type DeviceSessionRepository struct {
	pool *pgxpool.Pool
}

func NewDeviceSessionRepository(pool *pgxpool.Pool) *DeviceSessionRepository {
	return &DeviceSessionRepository{pool: pool}
}

const deviceSessionColumns = `id, account_id, device_id, device_label, device_class, created_at, last_active_at`

// AdmitHeartbeat runs the check-then-upsert as one transaction, serialized
// per account with an advisory lock so two concurrent heartbeats cannot both
// observe "under limit". The unique constraint on (account_id, device_id)
// backs the upsert.
func (r *DeviceSessionRepository) AdmitHeartbeat(ctx context.Context, sess models.DeviceSession, maxDevices int, window time.Duration) (models.AdmitResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.AdmitResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sess.AccountID); err != nil {
		return models.AdmitResult{}, fmt.Errorf("account lock: %w", err)
	}

	cutoff := time.Now().Add(-window)
	active, err := listActive(ctx, tx, sess.AccountID, cutoff)
	if err != nil {
		return models.AdmitResult{}, err
	}

	others := 0
	present := false
	for _, s := range active {
		if s.DeviceID == sess.DeviceID {
			present = true
		} else {
			others++
		}
	}

	if !present && others >= maxDevices {
		return models.AdmitResult{Admitted: false, Active: active}, nil
	}

	const upsert = `
		INSERT INTO device_sessions (
			id, account_id, device_id, device_label, device_class, created_at, last_active_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW(), NOW()
		)
		ON CONFLICT (account_id, device_id)
		DO UPDATE SET
			device_label = EXCLUDED.device_label,
			device_class = EXCLUDED.device_class,
			last_active_at = NOW()
	`
	if _, err := tx.Exec(ctx, upsert,
		sess.ID,
		sess.AccountID,
		sess.DeviceID,
		sess.DeviceLabel,
		sess.DeviceClass,
	); err != nil {
		return models.AdmitResult{}, fmt.Errorf("upsert session: %w", err)
	}

	active, err = listActive(ctx, tx, sess.AccountID, cutoff)
	if err != nil {
		return models.AdmitResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.AdmitResult{}, fmt.Errorf("commit: %w", err)
	}

	return models.AdmitResult{Admitted: true, Active: active}, nil
}

func (r *DeviceSessionRepository) ListActive(ctx context.Context, accountID string, window time.Duration) ([]models.DeviceSession, error) {
	return listActive(ctx, r.pool, accountID, time.Now().Add(-window))
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listActive(ctx context.Context, q querier, accountID string, cutoff time.Time) ([]models.DeviceSession, error) {
	const query = `
		SELECT ` + deviceSessionColumns + `
		FROM device_sessions
		WHERE account_id = $1 AND last_active_at >= $2
		ORDER BY last_active_at DESC
	`

	rows, err := q.Query(ctx, query, accountID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.DeviceSession
	for rows.Next() {
		var s models.DeviceSession
		if err := rows.Scan(
			&s.ID,
			&s.AccountID,
			&s.DeviceID,
			&s.DeviceLabel,
			&s.DeviceClass,
			&s.CreatedAt,
			&s.LastActiveAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Delete is idempotent: removing a session that does not exist is not an
// error.
func (r *DeviceSessionRepository) Delete(ctx context.Context, accountID, deviceID string) error {
	const query = `DELETE FROM device_sessions WHERE account_id = $1 AND device_id = $2`
	_, err := r.pool.Exec(ctx, query, accountID, deviceID)
	return err
}

func (r *DeviceSessionRepository) DeleteAllExcept(ctx context.Context, accountID, keepDeviceID string) (int64, error) {
	const query = `DELETE FROM device_sessions WHERE account_id = $1 AND device_id <> $2`
	cmd, err := r.pool.Exec(ctx, query, accountID, keepDeviceID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// PruneIdle removes rows whose last heartbeat is older than the cutoff.
// Housekeeping only: the active set is always computed from the activity
// window, so stale rows never count toward the cap either way.
func (r *DeviceSessionRepository) PruneIdle(ctx context.Context, olderThan time.Time) (int64, error) {
	const query = `DELETE FROM device_sessions WHERE last_active_at < $1`
	cmd, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
