/*
store.go - Boundary interfaces consumed by the engine

PURPOSE:
  Defines the two external collaborators the projection depends on: the
  transaction store and the clock. The engine itself holds no state and
  performs no I/O beyond the single ListByUser call per projection.

IMPLEMENTATIONS:
  - store/sqlite:        Production SQLite-backed TransactionStore
  - forecast/store:      In-memory TransactionStore for tests and dev

SEE ALSO:
  - projection.go: The only consumer of these interfaces
*/
package forecast

import (
	"context"
	"time"
)

// TransactionStore supplies already-validated transaction records per user.
// A failure here is surfaced by the Projector as an InfrastructureError;
// retry policy, if any, belongs to the store implementation.
type TransactionStore interface {
	// ListByUser returns all transactions owned by the given user.
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
}

// Clock supplies the "current instant" that fixes a projection window. It
// is read exactly once per projection call, so an entire run stays
// consistent even if wall-clock time advances mid-computation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant. Deterministic projections in
// tests depend on it.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }
