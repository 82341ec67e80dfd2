package models

import "time"

// DecisionReason identifies why playback was refused. Denials are ordinary
// return values, never errors: the client maps each reason to a specific
// prompt (subscribe, rent, sign out a device, try again).
type DecisionReason string

const (
	ReasonRentalRequired               DecisionReason = "RENTAL_REQUIRED"
	ReasonSubscriptionOrRentalRequired DecisionReason = "SUBSCRIPTION_OR_RENTAL_REQUIRED"
	ReasonVIPRequired                  DecisionReason = "VIP_REQUIRED"
	ReasonDeviceLimitReached           DecisionReason = "DEVICE_LIMIT_REACHED"
	ReasonStoreUnavailable             DecisionReason = "STORE_UNAVAILABLE"
)

// Decision is the ephemeral outcome of an entitlement check. Capability is
// set only when Granted.
type Decision struct {
	Granted    bool
	Reason     DecisionReason
	Capability *Capability
}

// SourceDescriptor locates the stream: either a single URL or a keyed
// quality map. Supplied by the catalog; passed through to granted callers
// (presigned first when it references object-storage keys).
type SourceDescriptor struct {
	URL       string            `json:"url,omitempty"`
	Qualities map[string]string `json:"qualities,omitempty"`
}

// Capability is the short-lived, opaque grant handed to a client on a
// successful authorization. It is deliberately coarse: it does not bind to a
// device; device admission is the lease manager's concern.
type Capability struct {
	Token     string           `json:"token"`
	Source    SourceDescriptor `json:"source"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// Grant is the stored record behind an issued capability, kept only for the
// capability's lifetime so the streaming edge can verify tokens.
type Grant struct {
	Token       string           `json:"token"`
	AccountID   string           `json:"accountId"`
	ContentID   string           `json:"contentId"`
	ContentType string           `json:"contentType"`
	Source      SourceDescriptor `json:"source"`
	IssuedAt    time.Time        `json:"issuedAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}
