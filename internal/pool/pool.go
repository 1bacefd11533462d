package pool

import (
	"errors"
	"sync"
	"time"

	"tgparser/internal/domain"

	"go.uber.org/zap"
)

// ErrNoCredentialAvailable is returned by Acquire when every credential is
// cooling down or currently in flight
var ErrNoCredentialAvailable = errors.New("no credential available")

// Outcome reports back to the pool how a credential was used
type Outcome struct {
	kind       outcomeKind
	retryAfter time.Duration
}

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRateLimited
	outcomeError
)

// Success marks the call as completed normally
func Success() Outcome {
	return Outcome{kind: outcomeSuccess}
}

// RateLimited marks the call as rejected by the platform rate limiter.
// retryAfter is the platform's hint; pass zero when it gave none.
func RateLimited(retryAfter time.Duration) Outcome {
	return Outcome{kind: outcomeRateLimited, retryAfter: retryAfter}
}

// Failure marks the call as failed for any other reason
func Failure() Outcome {
	return Outcome{kind: outcomeError}
}

// entry is the pool's mutable bookkeeping for one credential.
// Mutated only under the pool lock.
type entry struct {
	cred          domain.Credential
	status        domain.CredentialStatus
	errorCount    int
	cooldownUntil time.Time
	held          bool
}

// Pool owns a fixed set of bot credentials and hands them out one network
// call at a time. State lives for the process lifetime only.
type Pool struct {
	mu      sync.Mutex
	entries []*entry
	next    int // round-robin cursor

	errorThreshold   int
	cooldownWindow   time.Duration
	rateLimitBackoff time.Duration
	logger           *zap.Logger
}

// New creates a pool over the given credentials.
// errorThreshold is the consecutive error count that trips a cooldown,
// cooldownWindow the cooldown length it trips into, and rateLimitBackoff the
// base backoff used when a rate-limit response carries no retry hint.
func New(creds []domain.Credential, errorThreshold int, cooldownWindow, rateLimitBackoff time.Duration, logger *zap.Logger) *Pool {
	entries := make([]*entry, 0, len(creds))
	for _, c := range creds {
		entries = append(entries, &entry{
			cred:   c,
			status: domain.CredentialAvailable,
		})
	}

	logger.Info("Credential pool initialized", zap.Int("credentials", len(entries)))

	return &Pool{
		entries:          entries,
		errorThreshold:   errorThreshold,
		cooldownWindow:   cooldownWindow,
		rateLimitBackoff: rateLimitBackoff,
		logger:           logger,
	}
}

// Size returns the fixed configured credential count
func (p *Pool) Size() int {
	return len(p.entries)
}

// Acquire selects the next available credential round-robin. Expired
// cooldowns are applied before selection. A credential stays excluded from
// selection until the matching Release, so no two jobs share one.
func (p *Pool) Acquire() (domain.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.expireCooldowns(now)

	for i := 0; i < len(p.entries); i++ {
		e := p.entries[(p.next+i)%len(p.entries)]
		if e.held || e.status != domain.CredentialAvailable {
			continue
		}
		e.held = true
		p.next = (p.next + i + 1) % len(p.entries)
		return e.cred, nil
	}

	return domain.Credential{}, ErrNoCredentialAvailable
}

// Release returns an acquired credential to the pool and applies the outcome
// of the call it was used for. Unknown ids are ignored.
func (p *Pool) Release(id string, outcome Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.find(id)
	if e == nil {
		p.logger.Warn("Release for unknown credential", zap.String("credential_id", id))
		return
	}
	e.held = false

	now := time.Now()

	switch outcome.kind {
	case outcomeSuccess:
		e.status = domain.CredentialAvailable
		e.errorCount = 0
		e.cooldownUntil = time.Time{}

	case outcomeRateLimited:
		e.errorCount++
		backoff := outcome.retryAfter
		if backoff <= 0 {
			// No hint from the platform, scale the base backoff by how
			// often this credential has failed.
			backoff = time.Duration(e.errorCount) * p.rateLimitBackoff
		}
		e.status = domain.CredentialCooldown
		e.cooldownUntil = now.Add(backoff)
		p.logger.Warn("Credential rate limited, placed in cooldown",
			zap.String("credential_id", id),
			zap.Duration("backoff", backoff),
			zap.Int("error_count", e.errorCount),
		)

	case outcomeError:
		e.errorCount++
		if e.errorCount >= p.errorThreshold {
			e.status = domain.CredentialCooldown
			e.cooldownUntil = now.Add(p.cooldownWindow)
			p.logger.Warn("Credential exceeded error threshold, placed in cooldown",
				zap.String("credential_id", id),
				zap.Int("error_count", e.errorCount),
				zap.Time("cooldown_until", e.cooldownUntil),
			)
		}
	}
}

// Snapshot returns a point-in-time view of every credential with cooldown
// expiry already applied
func (p *Pool) Snapshot() []domain.CredentialView {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.expireCooldowns(time.Now())

	views := make([]domain.CredentialView, 0, len(p.entries))
	for _, e := range p.entries {
		v := domain.CredentialView{
			ID:         e.cred.ID,
			Status:     e.status,
			ErrorCount: e.errorCount,
		}
		if e.status == domain.CredentialCooldown {
			until := e.cooldownUntil
			v.CooldownUntil = &until
		}
		views = append(views, v)
	}
	return views
}

// NextWake returns the soonest cooldown expiry across the pool.
// ok is false when no credential is cooling down.
func (p *Pool) NextWake() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var wake time.Time
	for _, e := range p.entries {
		if e.status != domain.CredentialCooldown {
			continue
		}
		if wake.IsZero() || e.cooldownUntil.Before(wake) {
			wake = e.cooldownUntil
		}
	}
	return wake, !wake.IsZero()
}

// expireCooldowns restores every credential whose cooldown has elapsed.
// Caller must hold the lock.
func (p *Pool) expireCooldowns(now time.Time) {
	for _, e := range p.entries {
		if e.status == domain.CredentialCooldown && now.After(e.cooldownUntil) {
			e.status = domain.CredentialAvailable
			e.errorCount = 0
			e.cooldownUntil = time.Time{}
			p.logger.Info("Credential restored from cooldown", zap.String("credential_id", e.cred.ID))
		}
	}
}

func (p *Pool) find(id string) *entry {
	for _, e := range p.entries {
		if e.cred.ID == id {
			return e
		}
	}
	return nil
}
