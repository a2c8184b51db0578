// Package ids generates delivery identifiers attached to outgoing HTTP
// requests and broker messages so receivers can de-duplicate deliveries.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewDeliveryID returns a time-sortable ULID for a delivery issued now.
func NewDeliveryID() string {
	return newDeliveryIDAt(time.Now())
}

// newDeliveryIDAt returns a ULID whose timestamp component is t. IDs created
// within the same millisecond are strictly increasing.
func newDeliveryIDAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
