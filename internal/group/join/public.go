package join

// =============================================================================
// PUBLIC JOIN POLICY
// Anyone authenticated may join; membership is approved immediately
// =============================================================================

// PublicPolicy implements the Policy interface for public groups
type PublicPolicy struct{}

// Type returns the joining type identifier
func (p *PublicPolicy) Type() JoiningType {
	return TypePublic
}

// Evaluate admits every candidate with an approved membership
func (p *PublicPolicy) Evaluate(rules Rules, req Request) (Status, error) {
	return StatusApproved, nil
}
