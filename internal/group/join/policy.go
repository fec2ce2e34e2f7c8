package join

import (
	"errors"
	"fmt"
)

// JoiningType defines how a group admits new members
type JoiningType string

const (
	TypePublic     JoiningType = "public"
	TypeInviteOnly JoiningType = "invite_only"
	TypeScreening  JoiningType = "screening"
)

// Status is the membership status a successful join produces
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
)

// Question is one screening-form entry. Questions keep their declared order.
type Question struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// Rules carries the group-side inputs a policy evaluates against
type Rules struct {
	InviteCode string     // set only for invite_only groups
	Questions  []Question // group-defined screening questions, may be empty
}

// Request carries the candidate-side inputs of a join attempt
type Request struct {
	InviteCode  string            // supplied code, matched case-insensitively
	Application map[string]string // question-id -> answer, screening only
}

// Policy is the interface every joining-type policy implements
type Policy interface {
	// Evaluate decides the resulting membership status for a join attempt
	Evaluate(rules Rules, req Request) (Status, error)

	// Type returns the joining type this policy handles
	Type() JoiningType
}

// Factory creates join policies based on a group's joining type
type Factory struct{}

// NewPolicyFactory creates a new factory instance
func NewPolicyFactory() *Factory {
	return &Factory{}
}

// Create returns the policy implementation for the given joining type
func (f *Factory) Create(t JoiningType) (Policy, error) {
	switch t {
	case TypePublic:
		return &PublicPolicy{}, nil
	case TypeInviteOnly:
		return &InviteOnlyPolicy{}, nil
	case TypeScreening:
		return &ScreeningPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown joining type: %s", t)
	}
}

// Evaluate is a convenience wrapper for the one-shot lookup-and-evaluate path
func (f *Factory) Evaluate(t JoiningType, rules Rules, req Request) (Status, error) {
	policy, err := f.Create(t)
	if err != nil {
		return "", err
	}
	return policy.Evaluate(rules, req)
}

var (
	ErrMissingInviteCode      = errors.New("invite code is required for this group")
	ErrInvalidInviteCode      = errors.New("invalid invite code")
	ErrMissingApplicationData = errors.New("application answers are required for this group")
)
