package domain

// UserRef identifies a user either by username or by canonical id.
// Operations resolve a ref to a record exactly once at their boundary,
// so the two addressing modes never leak into storage or gateway code.
type UserRef struct {
	username string
	id       string
}

// ByUsername builds a ref addressed by username.
func ByUsername(name string) UserRef { return UserRef{username: name} }

// ByID builds a ref addressed by canonical user id.
func ByID(id string) UserRef { return UserRef{id: id} }

// Username returns the username and whether the ref is addressed by it.
func (r UserRef) Username() (string, bool) { return r.username, r.username != "" }

// ID returns the user id and whether the ref is addressed by it.
func (r UserRef) ID() (string, bool) { return r.id, r.id != "" }

func (r UserRef) String() string {
	if r.username != "" {
		return "username:" + r.username
	}
	return "id:" + r.id
}
