package types

import "time"

// User is a person who logs exercises.
type User struct {
	// ID is the store-assigned identifier of the user.
	ID string `json:"_id" db:"id"`

	// Username is the unique, trimmed name the user registered with.
	Username string `json:"username" db:"username"`

	// CreatedAt records insertion order. It is never exposed in API responses.
	CreatedAt time.Time `json:"-" db:"created_at"`
}
