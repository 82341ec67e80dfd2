package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

var ErrRentalNotFound = errors.New("rental not found")

type RentalRepository struct {
	pool *pgxpool.Pool
}

func NewRentalRepository(pool *pgxpool.Pool) *RentalRepository {
	return &RentalRepository{pool: pool}
}

// ForContent returns the unexpired completed rental for one content item, if
// any. Many rentals may coexist per account; at most one matters per item.
func (r *RentalRepository) ForContent(ctx context.Context, accountID, contentID, contentType string) (models.Rental, error) {
	const query = `
		SELECT account_id, content_id, content_type, price_cents, payment_status, start_date, end_date
		FROM rentals
		WHERE account_id = $1
		  AND content_id = $2
		  AND content_type = $3
		  AND payment_status = 'completed'
		  AND end_date >= NOW()
		ORDER BY end_date DESC
		LIMIT 1
	`

	row := r.pool.QueryRow(ctx, query, accountID, contentID, contentType)
	var rental models.Rental
	if err := row.Scan(
		&rental.AccountID,
		&rental.ContentID,
		&rental.ContentType,
		&rental.PriceCents,
		&rental.PaymentStatus,
		&rental.StartDate,
		&rental.EndDate,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Rental{}, ErrRentalNotFound
		}
		return models.Rental{}, err
	}
	return rental, nil
}
