package domain

import "time"

// CredentialStatus is the externally visible state of a pool credential
type CredentialStatus string

const (
	CredentialAvailable CredentialStatus = "available"
	CredentialCooldown  CredentialStatus = "cooldown"
)

// Credential is one bot token authorizing calls to the Telegram API.
// The pool owns all mutable bookkeeping; jobs only ever see this identity.
type Credential struct {
	ID     string
	Secret string
}

// CredentialView is a point-in-time view of one pool entry with cooldown
// expiry already applied
type CredentialView struct {
	ID            string           `json:"id"`
	Status        CredentialStatus `json:"status"`
	ErrorCount    int              `json:"error_count"`
	CooldownUntil *time.Time       `json:"cooldown_until"`
}

// PoolStatus is the wire shape consumed by the status endpoint
type PoolStatus struct {
	TotalTokens  int              `json:"total_tokens"`
	ActiveTokens int              `json:"active_tokens"`
	Tokens       []CredentialView `json:"tokens"`
}
