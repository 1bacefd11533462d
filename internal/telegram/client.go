package telegram

import (
	"context"

	"tgparser/internal/domain"
)

// MemberPage is one page of a group's member listing
type MemberPage struct {
	Members    []domain.MemberRecord
	TotalCount int
	HasMore    bool
}

// Client is the slice of the Telegram platform API the parser consumes.
// Every call is authorized by one credential acquired from the pool.
type Client interface {
	ResolveGroup(ctx context.Context, cred domain.Credential, ref string) (*domain.GroupInfo, error)
	ListMembers(ctx context.Context, cred domain.Credential, groupID string, offset, limit int) (*MemberPage, error)
}
