package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Current returns the most recently started completed subscription that has
// not ended. The data layer does not forbid overlapping subscriptions; any
// one active row is sufficient, so the latest start wins.
func (r *SubscriptionRepository) Current(ctx context.Context, accountID string) (models.Subscription, error) {
	const query = `
		SELECT account_id, plan_id, start_date, end_date, is_active, payment_status
		FROM subscriptions
		WHERE account_id = $1
		  AND is_active
		  AND payment_status = 'completed'
		  AND end_date >= NOW()
		ORDER BY start_date DESC
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, accountID)
	var sub models.Subscription
	if err := row.Scan(
		&sub.AccountID,
		&sub.PlanID,
		&sub.StartDate,
		&sub.EndDate,
		&sub.IsActive,
		&sub.PaymentStatus,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Subscription{}, ErrSubscriptionNotFound
		}
		return models.Subscription{}, err
	}
	return sub, nil
}
