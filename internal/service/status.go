package service

import (
	"tgparser/internal/domain"
	"tgparser/internal/pool"
)

// PoolStatusReporter exposes a read-only view over the credential pool.
// It never touches job state.
type PoolStatusReporter struct {
	pool *pool.Pool
}

// NewPoolStatusReporter creates a new pool status reporter
func NewPoolStatusReporter(credPool *pool.Pool) *PoolStatusReporter {
	return &PoolStatusReporter{pool: credPool}
}

// Status returns the pool's current state with cooldown expiry applied
func (r *PoolStatusReporter) Status() domain.PoolStatus {
	tokens := r.pool.Snapshot()

	active := 0
	for _, t := range tokens {
		if t.Status == domain.CredentialAvailable {
			active++
		}
	}

	return domain.PoolStatus{
		TotalTokens:  r.pool.Size(),
		ActiveTokens: active,
		Tokens:       tokens,
	}
}
