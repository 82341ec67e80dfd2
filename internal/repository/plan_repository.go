package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

var ErrPlanNotFound = errors.New("plan not found")

const planCacheTTL = 10 * time.Minute

// PlanRepository reads immutable plan reference data, cache-aside through
// redis. A nil cache client skips caching.
type PlanRepository struct {
	pool  *pgxpool.Pool
	cache *redis.Client
}

func NewPlanRepository(pool *pgxpool.Pool, cache *redis.Client) *PlanRepository {
	return &PlanRepository{pool: pool, cache: cache}
}

func (r *PlanRepository) Get(ctx context.Context, planID string) (models.Plan, error) {
	cacheKey := fmt.Sprintf("plan:%s", planID)

	if r.cache != nil {
		if payload, err := r.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var plan models.Plan
			if err := json.Unmarshal(payload, &plan); err == nil {
				return plan, nil
			}
		}
	}

	const query = `
		SELECT id, name, max_devices, duration_days, price_cents
		FROM plans WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, planID)
	var plan models.Plan
	if err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.MaxDevices,
		&plan.DurationDays,
		&plan.PriceCents,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Plan{}, ErrPlanNotFound
		}
		return models.Plan{}, err
	}

	if r.cache != nil {
		if payload, err := json.Marshal(plan); err == nil {
			r.cache.Set(ctx, cacheKey, payload, planCacheTTL)
		}
	}

	return plan, nil
}
