package testutil

import (
	"context"

	"tgparser/internal/domain"
	"tgparser/internal/telegram"

	"github.com/stretchr/testify/mock"
)

// MockTelegramClient is a mock for telegram.Client
type MockTelegramClient struct {
	mock.Mock
}

func (m *MockTelegramClient) ResolveGroup(ctx context.Context, cred domain.Credential, ref string) (*domain.GroupInfo, error) {
	args := m.Called(ctx, cred, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupInfo), args.Error(1)
}

func (m *MockTelegramClient) ListMembers(ctx context.Context, cred domain.Credential, groupID string, offset, limit int) (*telegram.MemberPage, error) {
	args := m.Called(ctx, cred, groupID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*telegram.MemberPage), args.Error(1)
}

// MockGroupRepository is a mock for repository.GroupRepository
type MockGroupRepository struct {
	mock.Mock
}

func (m *MockGroupRepository) SaveGroup(group *domain.GroupInfo) error {
	args := m.Called(group)
	return args.Error(0)
}

func (m *MockGroupRepository) ReplaceMembers(groupID string, members []domain.MemberRecord) error {
	args := m.Called(groupID, members)
	return args.Error(0)
}

func (m *MockGroupRepository) GetGroup(groupID string) (*domain.GroupInfo, error) {
	args := m.Called(groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupInfo), args.Error(1)
}
