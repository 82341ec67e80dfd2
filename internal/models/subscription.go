package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Plan is immutable reference data describing a subscription tier.
type Plan struct {
	ID           string
	Name         string
	MaxDevices   int
	DurationDays int
	PriceCents   int64
}

// Subscription rows are written by the payment collaborator; this service
// only reads them.
type Subscription struct {
	AccountID     string
	PlanID        string
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
	PaymentStatus PaymentStatus
}

// ActiveAt reports whether the subscription grants access at the given
// instant. An end date exactly equal to now is still active.
func (s Subscription) ActiveAt(now time.Time) bool {
	return s.IsActive && s.PaymentStatus == PaymentStatusCompleted && !s.EndDate.Before(now)
}

// Rental is a per-content purchase with its own validity window. Written by
// the payment collaborator; read-only here.
type Rental struct {
	AccountID     string
	ContentID     string
	ContentType   string
	PriceCents    int64
	PaymentStatus PaymentStatus
	StartDate     time.Time
	EndDate       time.Time
}

func (r Rental) ActiveAt(now time.Time) bool {
	return r.PaymentStatus == PaymentStatusCompleted && !r.EndDate.Before(now)
}
