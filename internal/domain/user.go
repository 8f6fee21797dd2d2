package domain

import "time"

// UserTable is the fixed table name user rows persist under. The default
// "users" name is never used; every query references this constant.
const UserTable = "dd_users"

// User represents an account in the system. It carries the standard
// identity fields plus the authorization flags and group/permission
// relations evaluated by the service layer.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	LastLogin    *time.Time
	DateJoined   time.Time

	// Groups is populated on demand by the repository layer.
	Groups []Group
}

// String renders a user as text: always exactly the username.
func (u User) String() string {
	return u.Username
}

// FullName joins the optional name parts, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// UserFilter narrows List queries. Nil fields match everything.
type UserFilter struct {
	IsStaff  *bool
	IsActive *bool
}
