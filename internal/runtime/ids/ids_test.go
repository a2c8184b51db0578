package ids

import (
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewDeliveryIDOrdering(t *testing.T) {
	const total = 50
	ids := make([]string, total)
	for i := range ids {
		ids[i] = NewDeliveryID()
	}

	for i, id := range ids {
		if _, err := ulid.Parse(id); err != nil {
			t.Fatalf("expected valid ULID at %d, got %v", i, err)
		}
		if i > 0 && ids[i-1] >= id {
			t.Fatalf("expected strictly increasing ids, %s >= %s", ids[i-1], id)
		}
	}
}

func TestDeliveryIDEncodesTime(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	id := newDeliveryIDAt(at)

	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if got := ulid.Time(parsed.Time()); !got.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got)
	}
}

func TestNewDeliveryIDConcurrentUniqueness(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 25

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := NewDeliveryID()
				mu.Lock()
				if _, ok := seen[id]; ok {
					t.Errorf("duplicate id generated: %s", id)
				}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Fatalf("expected %d unique ids, got %d", goroutines*perGoroutine, len(seen))
	}
}
