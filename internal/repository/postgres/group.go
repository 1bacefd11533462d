package postgres

import (
	"database/sql"
	"fmt"

	"tgparser/internal/domain"
)

// GroupRepo implements repository.GroupRepository
type GroupRepo struct {
	db *sql.DB
}

// NewGroupRepo creates a new group repository
func NewGroupRepo(db *sql.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// SaveGroup upserts group info by its Telegram group id
func (r *GroupRepo) SaveGroup(group *domain.GroupInfo) error {
	query := `
		INSERT INTO telegram_groups (group_id, name, member_count, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id)
		DO UPDATE SET name = $2, member_count = $3, description = $4, updated_at = NOW()
	`
	_, err := r.db.Exec(query, group.GroupID, group.Name, group.MemberCount, group.Description)
	return err
}

// GetGroup returns a previously saved group, nil when unknown
func (r *GroupRepo) GetGroup(groupID string) (*domain.GroupInfo, error) {
	var g domain.GroupInfo
	var description sql.NullString
	query := `
		SELECT group_id, name, member_count, description
		FROM telegram_groups
		WHERE group_id = $1
	`
	err := r.db.QueryRow(query, groupID).Scan(&g.GroupID, &g.Name, &g.MemberCount, &description)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if description.Valid {
		g.Description = description.String
	}

	return &g, nil
}

// ReplaceMembers swaps the stored member set of a group for the given one.
// Runs in one transaction so readers never see a half-written set.
func (r *GroupRepo) ReplaceMembers(groupID string, members []domain.MemberRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM telegram_members WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}

	query := `
		INSERT INTO telegram_members
			(group_id, user_id, username, first_name, last_name, is_premium, can_message, is_admin, admin_title)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, m := range members {
		if _, err := tx.Exec(query,
			groupID, m.UserID, m.Username, m.FirstName, m.LastName,
			m.IsPremium, m.CanMessage, m.IsAdmin, m.AdminTitle,
		); err != nil {
			return fmt.Errorf("failed to insert member %d: %w", m.UserID, err)
		}
	}

	return tx.Commit()
}
