package models

import "testing"

func TestPolicyRecord_Free(t *testing.T) {
	record := PolicyRecord{AccessTier: "free", RentalPriceCents: 499}

	policy, err := record.Policy()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := policy.(FreeAccess); !ok {
		t.Fatalf("expected FreeAccess, got %T", policy)
	}
}

func TestPolicyRecord_RentCarriesTerms(t *testing.T) {
	record := PolicyRecord{
		AccessTier:       "rent",
		ExcludeFromPlan:  true,
		RentalPriceCents: 499,
		RentalPeriodDays: 2,
		RentalMaxDevices: 1,
	}

	policy, err := record.Policy()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	rent, ok := policy.(RentAccess)
	if !ok {
		t.Fatalf("expected RentAccess, got %T", policy)
	}
	if !rent.ExcludeFromPlan || rent.PriceCents != 499 || rent.PeriodDays != 2 || rent.MaxDevices != 1 {
		t.Fatalf("rental terms not carried: %+v", rent)
	}
}

func TestPolicyRecord_Vip(t *testing.T) {
	policy, err := PolicyRecord{AccessTier: "vip"}.Policy()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := policy.(VipAccess); !ok {
		t.Fatalf("expected VipAccess, got %T", policy)
	}
}

func TestPolicyRecord_UnknownTier(t *testing.T) {
	if _, err := (PolicyRecord{AccessTier: "premium"}).Policy(); err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if _, err := (PolicyRecord{}).Policy(); err == nil {
		t.Fatal("expected error for empty tier")
	}
}
