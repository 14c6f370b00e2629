package users

import "time"

// User is a member of an entity. Members do not log in through the
// dashboard, so the stored hash only backs a temporary password.
type User struct {
	ID           int64     `json:"id"`
	EntityID     int64     `json:"entity_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const DefaultRole = "user"
