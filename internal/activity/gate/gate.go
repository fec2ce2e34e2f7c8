package gate

import (
	"errors"
	"fmt"
)

// ActivityType defines who may register for an activity
type ActivityType string

const (
	TypePublic     ActivityType = "public"
	TypePrivate    ActivityType = "private"
	TypeInviteOnly ActivityType = "invite_only"
)

// JoinInput carries everything an admission decision needs. RegisteredCount
// must be the authoritative count of registered participation rows, never the
// denormalized current_participants cache.
type JoinInput struct {
	RegisteredCount  int
	ParticipantLimit *int // nil means unlimited

	InviteCode         string // supplied by the candidate
	StoredCode         string // the activity's code, invite_only only
	HasGroupMembership bool   // approved membership in the owning group
}

// Gate is the interface every activity-type gate implements
type Gate interface {
	// Check returns nil when the candidate may register
	Check(in JoinInput) error

	// Type returns the activity type this gate handles
	Type() ActivityType
}

// Factory creates gates based on an activity's type
type Factory struct{}

// NewGateFactory creates a new factory instance
func NewGateFactory() *Factory {
	return &Factory{}
}

// Create returns the gate implementation for the given activity type
func (f *Factory) Create(t ActivityType) (Gate, error) {
	switch t {
	case TypePublic:
		return &PublicGate{}, nil
	case TypePrivate:
		return &PrivateGate{}, nil
	case TypeInviteOnly:
		return &InviteOnlyGate{}, nil
	default:
		return nil, fmt.Errorf("unknown activity type: %s", t)
	}
}

// Evaluate runs the full admission decision: capacity first, then the
// type-specific gate. The first failing check wins.
func (f *Factory) Evaluate(t ActivityType, in JoinInput) error {
	if in.ParticipantLimit != nil && in.RegisteredCount >= *in.ParticipantLimit {
		return ErrActivityFull
	}
	g, err := f.Create(t)
	if err != nil {
		return err
	}
	return g.Check(in)
}

var (
	ErrActivityFull      = errors.New("activity is full")
	ErrNotGroupMember    = errors.New("only group members can join this activity")
	ErrMissingInviteCode = errors.New("invite code is required for this activity")
	ErrInvalidInviteCode = errors.New("invalid invite code")
)
