package service

import (
	"testing"
	"time"

	"tgparser/internal/domain"
	"tgparser/internal/pool"
	"tgparser/internal/testutil"

	"github.com/stretchr/testify/assert"
)

func newStatusTestPool(n int) *pool.Pool {
	return pool.New(testutil.NewTestCredentials(n), 3, time.Minute, time.Second, testutil.NewTestLogger())
}

func TestPoolStatusReporter_AllAvailable(t *testing.T) {
	credPool := newStatusTestPool(3)
	reporter := NewPoolStatusReporter(credPool)

	status := reporter.Status()

	assert.Equal(t, 3, status.TotalTokens)
	assert.Equal(t, 3, status.ActiveTokens)
	assert.Len(t, status.Tokens, 3)
	for _, token := range status.Tokens {
		assert.Equal(t, domain.CredentialAvailable, token.Status)
		assert.Equal(t, 0, token.ErrorCount)
		assert.Nil(t, token.CooldownUntil)
	}
}

func TestPoolStatusReporter_CountsCooldowns(t *testing.T) {
	credPool := newStatusTestPool(2)
	reporter := NewPoolStatusReporter(credPool)

	cred, err := credPool.Acquire()
	assert.NoError(t, err)
	credPool.Release(cred.ID, pool.RateLimited(time.Hour))

	status := reporter.Status()

	assert.Equal(t, 2, status.TotalTokens, "total is the configured count regardless of cooldowns")
	assert.Equal(t, 1, status.ActiveTokens)
}

func TestPoolStatusReporter_ExpiredCooldownsCountAsActive(t *testing.T) {
	credPool := newStatusTestPool(2)
	reporter := NewPoolStatusReporter(credPool)

	// Both credentials enter a cooldown that is over almost immediately
	for i := 0; i < 2; i++ {
		cred, err := credPool.Acquire()
		assert.NoError(t, err)
		credPool.Release(cred.ID, pool.RateLimited(5*time.Millisecond))
	}

	time.Sleep(20 * time.Millisecond)

	status := reporter.Status()

	assert.Equal(t, 2, status.TotalTokens)
	assert.Equal(t, 2, status.ActiveTokens, "elapsed cooldowns must read as available")
	for _, token := range status.Tokens {
		assert.Equal(t, domain.CredentialAvailable, token.Status)
		assert.Nil(t, token.CooldownUntil)
	}
}
