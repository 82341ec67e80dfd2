package models

import "fmt"

// AccessPolicy is the content item's access classification as a closed set of
// variants. The catalog collaborator delivers a loose record (PolicyRecord);
// it is decoded into one of these exactly once at the boundary so the rest of
// the code never sees an invalid tier/field combination.
type AccessPolicy interface {
	accessPolicy()
}

// FreeAccess grants playback to everyone, no account state consulted.
type FreeAccess struct{}

// RentAccess requires a rental, or a subscription when the item is not
// excluded from plans. MaxDevices, when positive, overrides the account
// plan's device cap while this item plays.
type RentAccess struct {
	ExcludeFromPlan bool
	PriceCents      int64
	PeriodDays      int
	MaxDevices      int
}

// VipAccess requires an active subscription.
type VipAccess struct{}

func (FreeAccess) accessPolicy() {}
func (RentAccess) accessPolicy() {}
func (VipAccess) accessPolicy()  {}

// PolicyRecord is the wire shape the catalog emits for a content item's
// access attributes. Fields other than AccessTier are meaningful only for
// tier "rent".
type PolicyRecord struct {
	AccessTier       string `json:"accessTier"`
	ExcludeFromPlan  bool   `json:"excludeFromPlan"`
	RentalPriceCents int64  `json:"rentalPriceCents"`
	RentalPeriodDays int    `json:"rentalPeriodDays"`
	RentalMaxDevices int    `json:"rentalMaxDevices"`
}

// Policy narrows the loose record into the closed variant set.
func (r PolicyRecord) Policy() (AccessPolicy, error) {
	switch r.AccessTier {
	case "free":
		return FreeAccess{}, nil
	case "rent":
		return RentAccess{
			ExcludeFromPlan: r.ExcludeFromPlan,
			PriceCents:      r.RentalPriceCents,
			PeriodDays:      r.RentalPeriodDays,
			MaxDevices:      r.RentalMaxDevices,
		}, nil
	case "vip":
		return VipAccess{}, nil
	default:
		return nil, fmt.Errorf("unknown access tier %q", r.AccessTier)
	}
}
