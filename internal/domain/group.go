package domain

// Group is a named collection of users sharing a set of permissions.
type Group struct {
	ID   int64
	Name string
}

func (g Group) String() string {
	return g.Name
}

// Permission is a single grantable capability, identified by codename.
// Permissions attach either directly to a user or to a group.
type Permission struct {
	ID       int64
	Codename string
	Name     string
}

func (p Permission) String() string {
	return p.Codename
}
