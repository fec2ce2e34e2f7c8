package activity

import "github.com/soulstices/activityhub/internal/activity/gate"

// CreateActivityRequest represents the request to create an activity
type CreateActivityRequest struct {
	GroupID          int64             `json:"group_id" validate:"required"`
	Title            string            `json:"title" validate:"required,min=1,max=200"`
	Description      *string           `json:"description,omitempty"`
	Place            string            `json:"place" validate:"required"`
	Date             string            `json:"date" validate:"required"` // YYYY-MM-DD
	StartTime        string            `json:"start_time" validate:"required"`
	EndTime          string            `json:"end_time" validate:"required"`
	Payment          *string           `json:"payment,omitempty"`
	Type             gate.ActivityType `json:"type" validate:"required"`
	ParticipantLimit *int              `json:"participant_limit,omitempty"`
}

// UpdateActivityRequest represents the request to update an activity
type UpdateActivityRequest struct {
	Title            *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description      *string `json:"description,omitempty"`
	Place            *string `json:"place,omitempty"`
	Date             *string `json:"date,omitempty"`
	StartTime        *string `json:"start_time,omitempty"`
	EndTime          *string `json:"end_time,omitempty"`
	Payment          *string `json:"payment,omitempty"`
	ParticipantLimit *int    `json:"participant_limit,omitempty"`
}

// JoinActivityRequest represents a registration attempt
type JoinActivityRequest struct {
	InviteCode string `json:"invite_code,omitempty"`
}

// ActivityResponse represents the response for an activity
type ActivityResponse struct {
	ID                  int64             `json:"id"`
	GroupID             int64             `json:"group_id"`
	Title               string            `json:"title"`
	Description         *string           `json:"description,omitempty"`
	Place               string            `json:"place"`
	Date                string            `json:"date"`
	StartTime           string            `json:"start_time"`
	EndTime             string            `json:"end_time"`
	Payment             *string           `json:"payment,omitempty"`
	Type                gate.ActivityType `json:"type"`
	ParticipantLimit    *int              `json:"participant_limit,omitempty"`
	InviteCode          *string           `json:"invite_code,omitempty"`
	CurrentParticipants int               `json:"current_participants"`
	CreatedAt           string            `json:"created_at"`
}

// ParticipationResponse represents a participation in API responses
type ParticipationResponse struct {
	ID           int64               `json:"id"`
	ActivityID   int64               `json:"activity_id"`
	UserID       int64               `json:"user_id"`
	Name         string              `json:"name,omitempty"`
	Email        string              `json:"email,omitempty"`
	Status       ParticipationStatus `json:"status"`
	RegisteredAt string              `json:"registered_at"`
}

// ToResponse converts an Activity model to an ActivityResponse DTO. The
// invite code is only included when includeCode is true (group admins).
func (a *Activity) ToResponse(includeCode bool) *ActivityResponse {
	resp := &ActivityResponse{
		ID:                  a.ID,
		GroupID:             a.GroupID,
		Title:               a.Title,
		Description:         a.Description,
		Place:               a.Place,
		Date:                a.Date.Format("2006-01-02"),
		StartTime:           a.StartTime,
		EndTime:             a.EndTime,
		Payment:             a.Payment,
		Type:                a.Type,
		ParticipantLimit:    a.ParticipantLimit,
		CurrentParticipants: a.CurrentParticipants,
		CreatedAt:           a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if includeCode {
		resp.InviteCode = a.InviteCode
	}
	return resp
}

// ToResponse converts a Participation model to a ParticipationResponse DTO
func (p *Participation) ToResponse() *ParticipationResponse {
	return &ParticipationResponse{
		ID:           p.ID,
		ActivityID:   p.ActivityID,
		UserID:       p.UserID,
		Name:         p.Name,
		Email:        p.Email,
		Status:       p.Status,
		RegisteredAt: p.RegisteredAt.Format("2006-01-02T15:04:05Z"),
	}
}
