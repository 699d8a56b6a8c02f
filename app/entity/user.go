package entity

import "time"

type User struct {
	ID             string
	Email          string
	CanonicalEmail string
	PasswordHash   string
	Name           string
	CreatedAt      time.Time
	IsActive       bool
}
