package gate

// =============================================================================
// PUBLIC GATE
// No gate beyond the shared capacity check
// =============================================================================

// PublicGate implements the Gate interface for public activities
type PublicGate struct{}

// Type returns the activity type identifier
func (g *PublicGate) Type() ActivityType {
	return TypePublic
}

// Check admits every candidate
func (g *PublicGate) Check(in JoinInput) error {
	return nil
}
