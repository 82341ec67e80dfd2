package ids

import "github.com/segmentio/ksuid"

// New returns a sortable unique id for persisted rows.
func New() string {
	return ksuid.New().String()
}
