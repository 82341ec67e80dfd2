package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/cache"
	"github.com/Vankh007/tv4u-sub002/internal/config"
	"github.com/Vankh007/tv4u-sub002/internal/metrics"
	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/security"
)

// PlaybackService is the request façade: it asks the entitlement resolver
// for a decision and, on grant, issues the short-lived capability. Device
// admission is the lease service's concern and stays orthogonal.
type PlaybackService struct {
	entitlements *EntitlementService
	grants       GrantStore
	presigner    SourcePresigner
	cfg          *config.AppConfig
	log          zerolog.Logger
	now          func() time.Time
}

func NewPlaybackService(
	entitlements *EntitlementService,
	grants GrantStore,
	presigner SourcePresigner,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *PlaybackService {
	return &PlaybackService{
		entitlements: entitlements,
		grants:       grants,
		presigner:    presigner,
		cfg:          cfg,
		log:          log,
		now:          time.Now,
	}
}

type PlaybackInput struct {
	AccountID   string
	ContentID   string
	ContentType string
	Policy      models.AccessPolicy
	Source      models.SourceDescriptor
}

// Authorize runs the entitlement decision and attaches a capability on
// grant: a fresh random token, the source descriptor (presigned when it
// references stream objects), and the capability expiry.
func (s *PlaybackService) Authorize(ctx context.Context, input PlaybackInput) (models.Decision, error) {
	decision, err := s.entitlements.Authorize(ctx, AuthorizeInput{
		AccountID:   input.AccountID,
		ContentID:   input.ContentID,
		ContentType: input.ContentType,
		Policy:      input.Policy,
	})
	if err != nil || !decision.Granted {
		return decision, err
	}

	token, err := security.NewCapabilityToken(s.cfg.Capability.TokenBytes)
	if err != nil {
		return models.Decision{}, err
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.Capability.TTL)

	source, err := s.resolveSource(ctx, input.Source, s.cfg.Capability.TTL)
	if err != nil {
		metrics.StoreFailures.WithLabelValues("object_store").Inc()
		if s.cfg.Entitlement.FailClosed {
			s.log.Error().Err(err).Str("content_id", input.ContentID).Msg("source presign failed, denying playback")
			return models.Decision{Granted: false, Reason: models.ReasonStoreUnavailable}, nil
		}
		s.log.Warn().Err(err).Str("content_id", input.ContentID).Msg("source presign failed, returning raw descriptor")
		source = input.Source
	}

	grant := models.Grant{
		Token:       token,
		AccountID:   input.AccountID,
		ContentID:   input.ContentID,
		ContentType: input.ContentType,
		Source:      source,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
	}

	if s.grants != nil {
		if err := s.grants.Save(ctx, grant, s.cfg.Capability.TTL); err != nil {
			metrics.StoreFailures.WithLabelValues("grant").Inc()
			if s.cfg.Entitlement.FailClosed {
				s.log.Error().Err(err).Msg("grant store unavailable, denying playback")
				return models.Decision{Granted: false, Reason: models.ReasonStoreUnavailable}, nil
			}
			s.log.Warn().Err(err).Msg("grant store unavailable, issuing unverifiable capability")
		}
	}

	metrics.CapabilitiesIssued.Inc()
	decision.Capability = &models.Capability{
		Token:     token,
		Source:    source,
		ExpiresAt: expiresAt,
	}
	return decision, nil
}

// Verify resolves a capability token back to its grant for the streaming
// edge. Expired tokens have already fallen out of the grant store.
func (s *PlaybackService) Verify(ctx context.Context, token string) (models.Grant, error) {
	if token == "" {
		return models.Grant{}, fmt.Errorf("token required")
	}
	if s.grants == nil {
		return models.Grant{}, cache.ErrGrantNotFound
	}
	return s.grants.Get(ctx, token)
}

// resolveSource presigns descriptor entries that are object keys; entries
// that are already public URLs pass through unchanged.
func (s *PlaybackService) resolveSource(ctx context.Context, src models.SourceDescriptor, ttl time.Duration) (models.SourceDescriptor, error) {
	if s.presigner == nil {
		return src, nil
	}

	out := src
	if src.URL != "" && !isPublicURL(src.URL) {
		signed, err := s.presigner.PresignGet(ctx, src.URL, ttl)
		if err != nil {
			return models.SourceDescriptor{}, err
		}
		out.URL = signed
	}

	if len(src.Qualities) > 0 {
		out.Qualities = make(map[string]string, len(src.Qualities))
		for quality, ref := range src.Qualities {
			if isPublicURL(ref) {
				out.Qualities[quality] = ref
				continue
			}
			signed, err := s.presigner.PresignGet(ctx, ref, ttl)
			if err != nil {
				return models.SourceDescriptor{}, err
			}
			out.Qualities[quality] = signed
		}
	}

	return out, nil
}

func isPublicURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
