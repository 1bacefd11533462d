package testutil

import (
	"fmt"

	"tgparser/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestCredentials creates n distinct test credentials
func NewTestCredentials(n int) []domain.Credential {
	creds := make([]domain.Credential, 0, n)
	for i := 0; i < n; i++ {
		creds = append(creds, domain.Credential{
			ID:     fmt.Sprintf("cred-%d", i),
			Secret: fmt.Sprintf("secret-%d", i),
		})
	}
	return creds
}

// NewTestMembers creates count sequential member records starting at startID
func NewTestMembers(startID int64, count int) []domain.MemberRecord {
	members := make([]domain.MemberRecord, 0, count)
	for i := 0; i < count; i++ {
		id := startID + int64(i)
		members = append(members, domain.MemberRecord{
			UserID:     id,
			Username:   fmt.Sprintf("user%d", id),
			FirstName:  fmt.Sprintf("User %d", id),
			CanMessage: true,
		})
	}
	return members
}

// NewTestGroup creates a test group info
func NewTestGroup(groupID, name string, memberCount int) *domain.GroupInfo {
	return &domain.GroupInfo{
		GroupID:     groupID,
		Name:        name,
		MemberCount: memberCount,
	}
}
