package join

import "strings"

// =============================================================================
// SCREENING JOIN POLICY
// Requires a written application; membership stays pending until an
// administrator approves or rejects it
// =============================================================================

// Every screening application answers these two questions in addition to any
// group-defined ones.
const (
	FieldReason     = "reason"
	FieldExperience = "experience"
)

// ScreeningPolicy implements the Policy interface for screening groups
type ScreeningPolicy struct{}

// Type returns the joining type identifier
func (p *ScreeningPolicy) Type() JoiningType {
	return TypeScreening
}

// Evaluate validates the application and queues the membership as pending.
// The application content is never graded here; admission is an
// administrator decision.
func (p *ScreeningPolicy) Evaluate(rules Rules, req Request) (Status, error) {
	if req.Application == nil {
		return "", ErrMissingApplicationData
	}

	required := []string{FieldReason, FieldExperience}
	for _, q := range rules.Questions {
		required = append(required, q.ID)
	}

	for _, field := range required {
		if strings.TrimSpace(req.Application[field]) == "" {
			return "", ErrMissingApplicationData
		}
	}

	return StatusPending, nil
}
