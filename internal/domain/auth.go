package domain

import "time"

// AccessToken is a freshly issued bearer token for a subject.
type AccessToken struct {
	Subject   string
	Token     string
	ExpiresAt time.Time
}
