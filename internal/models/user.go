package models

import "time"

type Role string

const (
	RoleUser     Role = "user"
	RoleReviewer Role = "reviewer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// CanReview reports whether the role grants access to the board and other
// triage surfaces.
func (r Role) CanReview() bool {
	switch r {
	case RoleReviewer, RoleAdmin:
		return true
	case RoleUser:
		return false
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
