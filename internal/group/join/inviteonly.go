package join

import "github.com/soulstices/activityhub/pkg/invitecode"

// =============================================================================
// INVITE-ONLY JOIN POLICY
// Requires the group's invite code; a correct code approves immediately
// =============================================================================

// InviteOnlyPolicy implements the Policy interface for invite-only groups
type InviteOnlyPolicy struct{}

// Type returns the joining type identifier
func (p *InviteOnlyPolicy) Type() JoiningType {
	return TypeInviteOnly
}

// Evaluate checks the supplied code against the stored one, case-insensitively
func (p *InviteOnlyPolicy) Evaluate(rules Rules, req Request) (Status, error) {
	if req.InviteCode == "" {
		return "", ErrMissingInviteCode
	}
	if !invitecode.Matches(rules.InviteCode, req.InviteCode) {
		return "", ErrInvalidInviteCode
	}
	return StatusApproved, nil
}
