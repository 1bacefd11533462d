package repository

import (
	"tgparser/internal/domain"
)

// GroupRepository defines persistence of enumeration results
type GroupRepository interface {
	SaveGroup(group *domain.GroupInfo) error
	ReplaceMembers(groupID string, members []domain.MemberRecord) error
	GetGroup(groupID string) (*domain.GroupInfo, error)
}
