package group

import (
	"time"

	"github.com/soulstices/activityhub/internal/group/join"
)

// MembershipStatus represents the state of a group membership
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipApproved MembershipStatus = "approved"
	MembershipRejected MembershipStatus = "rejected"
)

// Group represents a community group
type Group struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Category    string           `json:"category"`
	JoiningType join.JoiningType `json:"joining_type"`

	// InviteCode is set once, when the group is created as invite_only or
	// first transitions to it, and never changes afterwards.
	InviteCode *string `json:"-"`

	// ScreeningForm holds the group's custom application questions, in the
	// order admins defined them. Used only when JoiningType is screening.
	ScreeningForm []join.Question `json:"screening_form,omitempty"`

	// MemberCount is a denormalized cache of approved memberships. The
	// authoritative value is the row count; never branch on this for
	// admission decisions.
	MemberCount int `json:"member_count"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership represents a user's join record in a group
type Membership struct {
	ID              int64             `json:"id"`
	GroupID         int64             `json:"group_id"`
	UserID          int64             `json:"user_id"`
	Status          MembershipStatus  `json:"status"`
	ApplicationData map[string]string `json:"application_data,omitempty"`
	JoinedAt        time.Time         `json:"joined_at"`

	// Populated from JOIN
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Admin represents an explicit administrator relation between a user and a
// group, kept separately from the user's role field
type Admin struct {
	ID         int64     `json:"id"`
	GroupID    int64     `json:"group_id"`
	UserID     int64     `json:"user_id"`
	AssignedAt time.Time `json:"assigned_at"`

	// Populated from JOIN
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
