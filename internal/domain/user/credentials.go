package user

import "strings"

// Credentials identify an account on the booking site. They are held in memory for
// the lifetime of a task and never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

// Same reports whether c authenticates the same account as o with the same secret.
func (c Credentials) Same(o Credentials) bool {
	return c.Username == o.Username && c.Password == o.Password
}
