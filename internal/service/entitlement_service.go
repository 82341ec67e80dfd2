package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/config"
	"github.com/Vankh007/tv4u-sub002/internal/metrics"
	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/repository"
)

// EntitlementService decides whether an account may obtain playback for one
// content item. Denials are decision values, never errors; only malformed
// input surfaces as an error.
type EntitlementService struct {
	subs    SubscriptionStore
	rentals RentalStore
	cfg     *config.AppConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewEntitlementService(
	subs SubscriptionStore,
	rentals RentalStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *EntitlementService {
	return &EntitlementService{
		subs:    subs,
		rentals: rentals,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

type AuthorizeInput struct {
	AccountID   string
	ContentID   string
	ContentType string
	Policy      models.AccessPolicy
}

// Authorize evaluates the access decision table, first match wins:
//
//	free                     always grant
//	rent, exclude_from_plan  active rental for this item
//	rent                     active subscription or active rental
//	vip                      active subscription
func (s *EntitlementService) Authorize(ctx context.Context, input AuthorizeInput) (models.Decision, error) {
	if input.Policy == nil {
		return models.Decision{}, errors.New("access policy required")
	}

	switch policy := input.Policy.(type) {
	case models.FreeAccess:
		// Intentional fast path: no account state is read for free content.
		return s.grant("free"), nil

	case models.RentAccess:
		if input.AccountID == "" {
			return models.Decision{}, errors.New("account id required")
		}
		hasRental, err := s.hasActiveRental(ctx, input)
		if err != nil {
			return s.storeFailure("rent", err), nil
		}
		if hasRental {
			return s.grant("rent"), nil
		}
		if policy.ExcludeFromPlan {
			return s.deny("rent", models.ReasonRentalRequired), nil
		}
		hasSub, err := s.hasActiveSubscription(ctx, input.AccountID)
		if err != nil {
			return s.storeFailure("rent", err), nil
		}
		if hasSub {
			return s.grant("rent"), nil
		}
		return s.deny("rent", models.ReasonSubscriptionOrRentalRequired), nil

	case models.VipAccess:
		if input.AccountID == "" {
			return models.Decision{}, errors.New("account id required")
		}
		hasSub, err := s.hasActiveSubscription(ctx, input.AccountID)
		if err != nil {
			return s.storeFailure("vip", err), nil
		}
		if hasSub {
			return s.grant("vip"), nil
		}
		return s.deny("vip", models.ReasonVIPRequired), nil

	default:
		return models.Decision{}, errors.New("unknown access policy variant")
	}
}

func (s *EntitlementService) hasActiveSubscription(ctx context.Context, accountID string) (bool, error) {
	sub, err := s.subs.Current(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrSubscriptionNotFound) {
			return false, nil
		}
		return false, err
	}
	return sub.ActiveAt(s.now()), nil
}

func (s *EntitlementService) hasActiveRental(ctx context.Context, input AuthorizeInput) (bool, error) {
	rental, err := s.rentals.ForContent(ctx, input.AccountID, input.ContentID, input.ContentType)
	if err != nil {
		if errors.Is(err, repository.ErrRentalNotFound) {
			return false, nil
		}
		return false, err
	}
	return rental.ActiveAt(s.now()), nil
}

func (s *EntitlementService) grant(tier string) models.Decision {
	metrics.EntitlementDecisions.WithLabelValues(tier, "granted").Inc()
	return models.Decision{Granted: true}
}

func (s *EntitlementService) deny(tier string, reason models.DecisionReason) models.Decision {
	metrics.EntitlementDecisions.WithLabelValues(tier, "denied").Inc()
	return models.Decision{Granted: false, Reason: reason}
}

// storeFailure applies the configured availability policy for entitlement.
// Fail-closed denies: granting playback without verified payment state is
// the costlier mistake here, unlike the device-limit side.
func (s *EntitlementService) storeFailure(tier string, err error) models.Decision {
	metrics.StoreFailures.WithLabelValues("entitlement").Inc()
	if s.cfg.Entitlement.FailClosed {
		s.log.Error().Err(err).Msg("record store unavailable, denying playback")
		return s.deny(tier, models.ReasonStoreUnavailable)
	}
	s.log.Warn().Err(err).Msg("record store unavailable, granting fail-open per configuration")
	return s.grant(tier)
}
