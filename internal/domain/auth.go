package domain

import "time"

// Token describes an issued bearer token. It is never persisted.
type Token struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
