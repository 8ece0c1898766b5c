package domain

import "time"

// User is a blog author able to obtain access tokens. The email is the token subject.
type User struct {
	Fullname     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
