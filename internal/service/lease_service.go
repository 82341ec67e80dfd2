package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/config"
	"github.com/Vankh007/tv4u-sub002/internal/ids"
	"github.com/Vankh007/tv4u-sub002/internal/metrics"
	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/repository"
)

// LeaseService admits or rejects a device into an account's set of
// concurrently active playback devices, and lets an account evict sessions.
type LeaseService struct {
	sessions DeviceSessionStore
	subs     SubscriptionStore
	plans    PlanStore
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewLeaseService(
	sessions DeviceSessionStore,
	subs SubscriptionStore,
	plans PlanStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *LeaseService {
	return &LeaseService{
		sessions: sessions,
		subs:     subs,
		plans:    plans,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type HeartbeatInput struct {
	AccountID   string
	DeviceID    string
	DeviceLabel string
	DeviceClass models.DeviceClass
	// MaxDevicesOverride carries the content's rental device cap when the
	// item being played has one; zero means no override.
	MaxDevicesOverride int
}

type HeartbeatResult struct {
	Admitted   bool
	Active     []models.DeviceSession
	MaxDevices int
}

// Heartbeat renews (or creates) the caller's device session if the account
// is under its device cap, or if this device already holds a slot. On
// rejection the active set is returned so the caller can offer an eviction
// choice. A store failure admits when the lease is configured fail-open.
func (s *LeaseService) Heartbeat(ctx context.Context, input HeartbeatInput) (HeartbeatResult, error) {
	if input.AccountID == "" {
		return HeartbeatResult{}, errors.New("account id required")
	}
	if input.DeviceID == "" {
		return HeartbeatResult{}, errors.New("device id required")
	}

	maxDevices := s.maxDevicesFor(ctx, input)

	sess := models.DeviceSession{
		ID:          ids.New(),
		AccountID:   input.AccountID,
		DeviceID:    input.DeviceID,
		DeviceLabel: input.DeviceLabel,
		DeviceClass: input.DeviceClass,
	}

	result, err := s.sessions.AdmitHeartbeat(ctx, sess, maxDevices, s.cfg.Lease.ActivityWindow)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("device_session").Inc()
		if s.cfg.Lease.FailOpen {
			s.log.Warn().
				Err(err).
				Str("account_id", input.AccountID).
				Str("device_id", input.DeviceID).
				Msg("session store unavailable, admitting heartbeat fail-open")
			metrics.Heartbeats.WithLabelValues("fail_open").Inc()
			return HeartbeatResult{Admitted: true, MaxDevices: maxDevices}, nil
		}
		return HeartbeatResult{}, fmt.Errorf("admit heartbeat: %w", err)
	}

	if result.Admitted {
		metrics.Heartbeats.WithLabelValues("admitted").Inc()
	} else {
		metrics.Heartbeats.WithLabelValues("rejected").Inc()
		s.log.Info().
			Str("account_id", input.AccountID).
			Str("device_id", input.DeviceID).
			Int("max_devices", maxDevices).
			Int("active", len(result.Active)).
			Msg("device limit reached")
	}

	return HeartbeatResult{
		Admitted:   result.Admitted,
		Active:     result.Active,
		MaxDevices: maxDevices,
	}, nil
}

// maxDevicesFor resolves the account's device cap: content rental override,
// else the active subscription's plan, else the configured default. Lookup
// failures fall back to the default rather than blocking the heartbeat.
func (s *LeaseService) maxDevicesFor(ctx context.Context, input HeartbeatInput) int {
	if input.MaxDevicesOverride > 0 {
		return input.MaxDevicesOverride
	}

	sub, err := s.subs.Current(ctx, input.AccountID)
	if err != nil {
		if !errors.Is(err, repository.ErrSubscriptionNotFound) {
			metrics.StoreFailures.WithLabelValues("subscription").Inc()
			s.log.Warn().Err(err).Str("account_id", input.AccountID).Msg("subscription lookup failed, using default device cap")
		}
		return s.cfg.Lease.DefaultMaxDevices
	}
	if !sub.ActiveAt(s.now()) {
		return s.cfg.Lease.DefaultMaxDevices
	}

	plan, err := s.plans.Get(ctx, sub.PlanID)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("plan").Inc()
		s.log.Warn().Err(err).Str("plan_id", sub.PlanID).Msg("plan lookup failed, using default device cap")
		return s.cfg.Lease.DefaultMaxDevices
	}
	if plan.MaxDevices <= 0 {
		return s.cfg.Lease.DefaultMaxDevices
	}
	return plan.MaxDevices
}

func (s *LeaseService) ListActiveSessions(ctx context.Context, accountID string) ([]models.DeviceSession, error) {
	if accountID == "" {
		return nil, errors.New("account id required")
	}
	return s.sessions.ListActive(ctx, accountID, s.cfg.Lease.ActivityWindow)
}

// SignOutDevice removes the named session. Idempotent: the session not
// existing is not an error.
func (s *LeaseService) SignOutDevice(ctx context.Context, accountID, deviceID string) error {
	if accountID == "" || deviceID == "" {
		return errors.New("account id and device id required")
	}
	return s.sessions.Delete(ctx, accountID, deviceID)
}

func (s *LeaseService) SignOutAllOtherDevices(ctx context.Context, accountID, keepDeviceID string) (int64, error) {
	if accountID == "" {
		return 0, errors.New("account id required")
	}
	return s.sessions.DeleteAllExcept(ctx, accountID, keepDeviceID)
}
