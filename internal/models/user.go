package models

import "time"

// User is a portal account. Email is stored lower-cased.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns a copy of u safe to hand outside the service layer.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
