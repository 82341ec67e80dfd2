package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/config"
	"github.com/Vankh007/tv4u-sub002/internal/models"
	"github.com/Vankh007/tv4u-sub002/internal/repository/memory"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Lease: config.LeaseConfig{
			ActivityWindow:    time.Hour,
			DefaultMaxDevices: 2,
			FailOpen:          true,
		},
		Entitlement: config.EntitlementConfig{FailClosed: true},
		Capability: config.CapabilityConfig{
			TTL:        30 * time.Minute,
			TokenBytes: 32,
		},
	}
}

func newEntitlementFixture() (*EntitlementService, *memory.SubscriptionStore, *memory.RentalStore) {
	subs := memory.NewSubscriptionStore()
	subs.Now = func() time.Time { return fixedNow }
	rentals := memory.NewRentalStore()
	rentals.Now = func() time.Time { return fixedNow }

	svc := NewEntitlementService(subs, rentals, testConfig(), zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, subs, rentals
}

func activeSubscription(accountID, planID string) models.Subscription {
	return models.Subscription{
		AccountID:     accountID,
		PlanID:        planID,
		StartDate:     fixedNow.Add(-24 * time.Hour),
		EndDate:       fixedNow.Add(30 * 24 * time.Hour),
		IsActive:      true,
		PaymentStatus: models.PaymentStatusCompleted,
	}
}

func activeRental(accountID, contentID, contentType string) models.Rental {
	return models.Rental{
		AccountID:     accountID,
		ContentID:     contentID,
		ContentType:   contentType,
		PaymentStatus: models.PaymentStatusCompleted,
		StartDate:     fixedNow.Add(-time.Hour),
		EndDate:       fixedNow.Add(48 * time.Hour),
	}
}

type failingSubStore struct{}

func (failingSubStore) Current(ctx context.Context, accountID string) (models.Subscription, error) {
	return models.Subscription{}, errors.New("store down")
}

type failingRentalStore struct{}

func (failingRentalStore) ForContent(ctx context.Context, accountID, contentID, contentType string) (models.Rental, error) {
	return models.Rental{}, errors.New("store down")
}

func TestAuthorize_FreeAlwaysGranted(t *testing.T) {
	// Free content reads no account state at all: even failing stores and a
	// missing account identity must not matter.
	svc := NewEntitlementService(failingSubStore{}, failingRentalStore{}, testConfig(), zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }

	decision, err := svc.Authorize(context.Background(), AuthorizeInput{
		ContentID:   "movie-1",
		ContentType: "movie",
		Policy:      models.FreeAccess{},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !decision.Granted {
		t.Fatalf("expected grant for free content, got reason %s", decision.Reason)
	}
}

func TestAuthorize_RentExcludedRequiresRental(t *testing.T) {
	svc, subs, rentals := newEntitlementFixture()
	subs.Put(activeSubscription("acct-1", "plan-vip"))

	policy := models.RentAccess{ExcludeFromPlan: true, PriceCents: 499, PeriodDays: 2}

	// An active subscription alone must NOT grant an excluded item.
	decision, err := svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "movie-1", ContentType: "movie", Policy: policy,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if decision.Granted {
		t.Fatal("subscription must not satisfy an exclude_from_plan item")
	}
	if decision.Reason != models.ReasonRentalRequired {
		t.Fatalf("expected RENTAL_REQUIRED, got %s", decision.Reason)
	}

	rentals.Put(activeRental("acct-1", "movie-1", "movie"))

	decision, err = svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "movie-1", ContentType: "movie", Policy: policy,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !decision.Granted {
		t.Fatalf("expected grant with active rental, got %s", decision.Reason)
	}
}

func TestAuthorize_RentSubscriptionOrRental(t *testing.T) {
	policy := models.RentAccess{PriceCents: 299, PeriodDays: 2}

	cases := []struct {
		name    string
		sub     bool
		rental  bool
		granted bool
	}{
		{"neither", false, false, false},
		{"subscription only", true, false, true},
		{"rental only", false, true, true},
		{"both", true, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, subs, rentals := newEntitlementFixture()
			if tc.sub {
				subs.Put(activeSubscription("acct-1", "plan-vip"))
			}
			if tc.rental {
				rentals.Put(activeRental("acct-1", "movie-1", "movie"))
			}

			decision, err := svc.Authorize(context.Background(), AuthorizeInput{
				AccountID: "acct-1", ContentID: "movie-1", ContentType: "movie", Policy: policy,
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if decision.Granted != tc.granted {
				t.Fatalf("granted = %v, want %v (reason %s)", decision.Granted, tc.granted, decision.Reason)
			}
			if !tc.granted && decision.Reason != models.ReasonSubscriptionOrRentalRequired {
				t.Fatalf("expected SUBSCRIPTION_OR_RENTAL_REQUIRED, got %s", decision.Reason)
			}
		})
	}
}

func TestAuthorize_VipRequiresSubscription(t *testing.T) {
	svc, subs, rentals := newEntitlementFixture()

	// A rental for the same item is irrelevant to vip content.
	rentals.Put(activeRental("acct-1", "show-9", "series"))

	decision, err := svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "show-9", ContentType: "series", Policy: models.VipAccess{},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if decision.Granted {
		t.Fatal("rental must not satisfy vip content")
	}
	if decision.Reason != models.ReasonVIPRequired {
		t.Fatalf("expected VIP_REQUIRED, got %s", decision.Reason)
	}

	subs.Put(activeSubscription("acct-1", "plan-vip"))

	decision, err = svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "show-9", ContentType: "series", Policy: models.VipAccess{},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !decision.Granted {
		t.Fatalf("expected grant with subscription, got %s", decision.Reason)
	}
}

func TestAuthorize_ExpiryBoundary(t *testing.T) {
	// end_date equal to now is still active; a microsecond past is not.
	cases := []struct {
		name    string
		endDate time.Time
		granted bool
	}{
		{"ends exactly now", fixedNow, true},
		{"ended a microsecond ago", fixedNow.Add(-time.Microsecond), false},
	}

	for _, tc := range cases {
		t.Run("subscription "+tc.name, func(t *testing.T) {
			svc, subs, _ := newEntitlementFixture()
			sub := activeSubscription("acct-1", "plan-vip")
			sub.EndDate = tc.endDate
			subs.Put(sub)

			decision, err := svc.Authorize(context.Background(), AuthorizeInput{
				AccountID: "acct-1", ContentID: "show-9", ContentType: "series", Policy: models.VipAccess{},
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if decision.Granted != tc.granted {
				t.Fatalf("granted = %v, want %v", decision.Granted, tc.granted)
			}
		})

		t.Run("rental "+tc.name, func(t *testing.T) {
			svc, _, rentals := newEntitlementFixture()
			rental := activeRental("acct-1", "movie-1", "movie")
			rental.EndDate = tc.endDate
			rentals.Put(rental)

			decision, err := svc.Authorize(context.Background(), AuthorizeInput{
				AccountID: "acct-1", ContentID: "movie-1", ContentType: "movie",
				Policy: models.RentAccess{ExcludeFromPlan: true},
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if decision.Granted != tc.granted {
				t.Fatalf("granted = %v, want %v", decision.Granted, tc.granted)
			}
		})
	}
}

func TestAuthorize_PendingPaymentDoesNotGrant(t *testing.T) {
	svc, subs, _ := newEntitlementFixture()
	sub := activeSubscription("acct-1", "plan-vip")
	sub.PaymentStatus = models.PaymentStatusPending
	subs.Put(sub)

	decision, err := svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "show-9", ContentType: "series", Policy: models.VipAccess{},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if decision.Granted {
		t.Fatal("pending payment must not grant")
	}
}

func TestAuthorize_StoreFailureFailsClosed(t *testing.T) {
	svc := NewEntitlementService(failingSubStore{}, failingRentalStore{}, testConfig(), zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }

	decision, err := svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "show-9", ContentType: "series", Policy: models.VipAccess{},
	})
	if err != nil {
		t.Fatalf("store failure must surface as a decision, got error %v", err)
	}
	if decision.Granted {
		t.Fatal("expected deny on store failure")
	}
	if decision.Reason != models.ReasonStoreUnavailable {
		t.Fatalf("expected STORE_UNAVAILABLE, got %s", decision.Reason)
	}
}

func TestAuthorize_StoreFailureFailOpenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Entitlement.FailClosed = false
	svc := NewEntitlementService(failingSubStore{}, failingRentalStore{}, cfg, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }

	decision, err := svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "show-9", ContentType: "series", Policy: models.VipAccess{},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !decision.Granted {
		t.Fatal("fail-open configuration must grant on store failure")
	}
}

func TestAuthorize_RequiresPolicy(t *testing.T) {
	svc, _, _ := newEntitlementFixture()

	if _, err := svc.Authorize(context.Background(), AuthorizeInput{
		AccountID: "acct-1", ContentID: "movie-1", ContentType: "movie",
	}); err == nil {
		t.Fatal("expected error for missing policy")
	}
}
