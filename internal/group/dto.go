package group

import "github.com/soulstices/activityhub/internal/group/join"

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name          string           `json:"name" validate:"required,min=1,max=100"`
	Description   *string          `json:"description,omitempty"`
	Category      string           `json:"category" validate:"required"`
	JoiningType   join.JoiningType `json:"joining_type" validate:"required"`
	ScreeningForm []join.Question  `json:"screening_form,omitempty"`
}

// UpdateGroupRequest represents the request to update a group
type UpdateGroupRequest struct {
	Name          *string           `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description   *string           `json:"description,omitempty"`
	Category      *string           `json:"category,omitempty"`
	JoiningType   *join.JoiningType `json:"joining_type,omitempty"`
	ScreeningForm []join.Question   `json:"screening_form,omitempty"`
}

// JoinGroupRequest represents a join attempt
type JoinGroupRequest struct {
	InviteCode      string            `json:"invite_code,omitempty"`
	ApplicationData map[string]string `json:"application_data,omitempty"`
}

// AssignAdminRequest represents the request to make a user a group admin
type AssignAdminRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Description   *string               `json:"description,omitempty"`
	Category      string                `json:"category"`
	JoiningType   join.JoiningType      `json:"joining_type"`
	InviteCode    *string               `json:"invite_code,omitempty"`
	ScreeningForm []join.Question       `json:"screening_form,omitempty"`
	MemberCount   int                   `json:"member_count"`
	CreatedAt     string                `json:"created_at"`
	Members       []*MembershipResponse `json:"members,omitempty"`
}

// MembershipResponse represents a membership in API responses
type MembershipResponse struct {
	ID              int64             `json:"id"`
	GroupID         int64             `json:"group_id"`
	UserID          int64             `json:"user_id"`
	Name            string            `json:"name,omitempty"`
	Email           string            `json:"email,omitempty"`
	Status          MembershipStatus  `json:"status"`
	ApplicationData map[string]string `json:"application_data,omitempty"`
	JoinedAt        string            `json:"joined_at"`
}

// AdminResponse represents an administrator relation in API responses
type AdminResponse struct {
	ID         int64  `json:"id"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	AssignedAt string `json:"assigned_at"`
}

// ToResponse converts a Group model to a GroupResponse DTO. The invite code
// is only included when includeCode is true (group admins and founders).
func (g *Group) ToResponse(includeCode bool) *GroupResponse {
	resp := &GroupResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		Category:      g.Category,
		JoiningType:   g.JoiningType,
		ScreeningForm: g.ScreeningForm,
		MemberCount:   g.MemberCount,
		CreatedAt:     g.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if includeCode {
		resp.InviteCode = g.InviteCode
	}
	return resp
}

// ToResponse converts a Membership model to a MembershipResponse DTO
func (m *Membership) ToResponse() *MembershipResponse {
	return &MembershipResponse{
		ID:              m.ID,
		GroupID:         m.GroupID,
		UserID:          m.UserID,
		Name:            m.Name,
		Email:           m.Email,
		Status:          m.Status,
		ApplicationData: m.ApplicationData,
		JoinedAt:        m.JoinedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts an Admin model to an AdminResponse DTO
func (a *Admin) ToResponse() *AdminResponse {
	return &AdminResponse{
		ID:         a.ID,
		GroupID:    a.GroupID,
		UserID:     a.UserID,
		Name:       a.Name,
		Email:      a.Email,
		AssignedAt: a.AssignedAt.Format("2006-01-02T15:04:05Z"),
	}
}
