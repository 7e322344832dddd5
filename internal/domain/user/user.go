package user

import "time"

// User is an operator allowed to submit tasks through the web API.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}
