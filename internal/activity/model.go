package activity

import (
	"time"

	"github.com/soulstices/activityhub/internal/activity/gate"
)

// ParticipationStatus is the state of a participation row. Rows are deleted
// on leave rather than transitioned, so registered is the only value.
type ParticipationStatus string

const (
	ParticipationRegistered ParticipationStatus = "registered"
)

// Activity represents an event hosted by a group
type Activity struct {
	ID          int64             `json:"id"`
	GroupID     int64             `json:"group_id"`
	Title       string            `json:"title"`
	Description *string           `json:"description,omitempty"`
	Place       string            `json:"place"`
	Date        time.Time         `json:"date"`
	StartTime   string            `json:"start_time"`
	EndTime     string            `json:"end_time"`
	Payment     *string           `json:"payment,omitempty"`
	Type        gate.ActivityType `json:"type"`

	// ParticipantLimit is nil for unlimited activities
	ParticipantLimit *int `json:"participant_limit,omitempty"`

	// InviteCode is minted once for invite_only activities and never changes
	InviteCode *string `json:"-"`

	// CurrentParticipants is a denormalized cache; the authoritative count is
	// the number of registered participation rows
	CurrentParticipants int `json:"current_participants"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Participation represents a user's registration for an activity
type Participation struct {
	ID           int64               `json:"id"`
	ActivityID   int64               `json:"activity_id"`
	UserID       int64               `json:"user_id"`
	Status       ParticipationStatus `json:"status"`
	RegisteredAt time.Time           `json:"registered_at"`

	// Populated from JOIN
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}
