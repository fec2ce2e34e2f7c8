package gate

import "github.com/soulstices/activityhub/pkg/invitecode"

// =============================================================================
// INVITE-ONLY GATE
// Requires the activity's invite code, matched case-insensitively
// =============================================================================

// InviteOnlyGate implements the Gate interface for invite-only activities
type InviteOnlyGate struct{}

// Type returns the activity type identifier
func (g *InviteOnlyGate) Type() ActivityType {
	return TypeInviteOnly
}

// Check validates the supplied invite code
func (g *InviteOnlyGate) Check(in JoinInput) error {
	if in.InviteCode == "" {
		return ErrMissingInviteCode
	}
	if !invitecode.Matches(in.StoredCode, in.InviteCode) {
		return ErrInvalidInviteCode
	}
	return nil
}
