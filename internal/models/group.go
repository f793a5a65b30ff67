package models

// Group is a roster of members sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Lisbon trip").
	Name string

	// Description is optional free text.
	Description string

	// MemberIDs is the roster: the fixed, ordered set of member IDs in the group.
	// Roster order drives the order of computed balances.
	MemberIDs []string

	// Active is false once the group has been deleted.
	Active bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether memberID is on the roster.
func (g *Group) HasMember(memberID string) bool {
	for _, id := range g.MemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}
