package service

import (
	"context"
	"time"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

// Store contracts consumed by the services. The postgres implementations
// live in internal/repository, the in-memory ones in
// internal/repository/memory.

type SubscriptionStore interface {
	Current(ctx context.Context, accountID string) (models.Subscription, error)
}

type RentalStore interface {
	ForContent(ctx context.Context, accountID, contentID, contentType string) (models.Rental, error)
}

type PlanStore interface {
	Get(ctx context.Context, planID string) (models.Plan, error)
}

// DeviceSessionStore owns the atomic check-then-upsert: AdmitHeartbeat must
// serialize concurrent heartbeats per account so the active-count check sees
// a consistent snapshot.
type DeviceSessionStore interface {
	AdmitHeartbeat(ctx context.Context, sess models.DeviceSession, maxDevices int, window time.Duration) (models.AdmitResult, error)
	ListActive(ctx context.Context, accountID string, window time.Duration) ([]models.DeviceSession, error)
	Delete(ctx context.Context, accountID, deviceID string) error
	DeleteAllExcept(ctx context.Context, accountID, keepDeviceID string) (int64, error)
}

// GrantStore holds issued capabilities for their lifetime.
type GrantStore interface {
	Save(ctx context.Context, grant models.Grant, ttl time.Duration) error
	Get(ctx context.Context, token string) (models.Grant, error)
}

// SourcePresigner turns object-storage keys in a source descriptor into
// fetchable URLs.
type SourcePresigner interface {
	PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}
