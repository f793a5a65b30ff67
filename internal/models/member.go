package models

// Member is a member directory entry. The calculator only ever sees the ID;
// the name is resolved when results are rendered.
type Member struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt int64
}
