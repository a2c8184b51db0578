// Package metadata holds the string key/value headers that travel alongside a
// delivered message: Watermill metadata for broker pathways and request
// headers for the HTTP pathway. They never become part of the message body.
package metadata

import (
	"net/http"
	"sort"
)

// Standard keys set by pathways on every delivery.
const (
	KeyDeliveryID  = "mozdef_delivery_id"
	KeyContentType = "content_type"
	KeyBatchSize   = "mozdef_batch_size"
)

// Metadata represents the headers carried alongside a delivery.
type Metadata map[string]string

// Clone returns a shallow copy; the result is never nil.
func (m Metadata) Clone() Metadata {
	cloned := make(Metadata, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// With returns a copy containing the provided key/value pair.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.Clone()
	cloned[key] = value
	return cloned
}

// Merge returns a copy where entries from other override entries in m.
func (m Metadata) Merge(other Metadata) Metadata {
	cloned := m.Clone()
	for k, v := range other {
		cloned[k] = v
	}
	return cloned
}

// Keys returns the keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyHeaders sets every entry on h, replacing existing values.
func (m Metadata) ApplyHeaders(h http.Header) {
	for k, v := range m {
		h.Set(k, v)
	}
}

// New constructs a Metadata map from alternating key/value pairs. A trailing
// key without a value is ignored.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}
