package models

import "time"

type DeviceClass string

const (
	DeviceClassWeb    DeviceClass = "web"
	DeviceClassMobile DeviceClass = "mobile"
	DeviceClassTV     DeviceClass = "tv"
	DeviceClassOther  DeviceClass = "other"
)

// DeviceSession is one device's claim on an account's concurrent-playback
// slots. Unique per (account_id, device_id); refreshed on every heartbeat.
type DeviceSession struct {
	ID           string
	AccountID    string
	DeviceID     string
	DeviceLabel  string
	DeviceClass  DeviceClass
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// ActiveAt reports whether the session counts toward the account's active set:
// the last heartbeat landed within the activity window.
func (s DeviceSession) ActiveAt(now time.Time, window time.Duration) bool {
	return now.Sub(s.LastActiveAt) <= window
}

// AdmitResult is the outcome of an atomic heartbeat admission at the store.
// On rejection Active carries the current active set so the caller can offer
// an eviction choice.
type AdmitResult struct {
	Admitted bool
	Active   []DeviceSession
}
