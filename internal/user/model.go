package user

import "time"

// Role is a user's stored role. The group_admin role is kept in sync with
// the group_admins relation table by the admin-assignment flow; founders
// never lose their founder role.
type Role string

const (
	RoleFounder    Role = "founder"
	RoleGroupAdmin Role = "group_admin"
	RoleMember     Role = "member"
)

// User represents a user in the system
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Bio            *string   `json:"bio,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Capabilities is a user's effective capability set, derived from the stored
// role plus the explicit administrator relations
type Capabilities struct {
	IsFounder    bool    `json:"is_founder"`
	GroupAdminOf []int64 `json:"group_admin_of"`
	IsMember     bool    `json:"is_member"`
}
