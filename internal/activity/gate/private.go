package gate

// =============================================================================
// PRIVATE GATE
// Only approved members of the owning group may register
// =============================================================================

// PrivateGate implements the Gate interface for private activities
type PrivateGate struct{}

// Type returns the activity type identifier
func (g *PrivateGate) Type() ActivityType {
	return TypePrivate
}

// Check requires an approved membership in the activity's owning group
func (g *PrivateGate) Check(in JoinInput) error {
	if !in.HasGroupMembership {
		return ErrNotGroupMember
	}
	return nil
}
