package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NotificationIDGenerator generates unique notification IDs for correlating a
// dispatch across logs and the notifier transport.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type NotificationIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 notification IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined IDs for testing, then falls back to
// "notification-N" once the list is exhausted.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if g.idx <= len(g.ids) {
		return g.ids[g.idx-1]
	}
	return fmt.Sprintf("notification-%d", g.idx)
}
