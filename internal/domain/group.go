package domain

// GroupInfo is the result of resolving a group reference.
// Immutable once produced.
type GroupInfo struct {
	GroupID     string `json:"group_id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count,omitempty"`
	Description string `json:"description,omitempty"`
}

// MemberRecord is one group member as reported by the Telegram API
type MemberRecord struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	IsPremium  bool   `json:"is_premium"`
	CanMessage bool   `json:"can_message"`
	IsAdmin    bool   `json:"is_admin"`
	AdminTitle string `json:"admin_title,omitempty"`
}
