package auth

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEntity Role = "entity"
	RoleUser   Role = "user"
)

// Profile is the public view of an authenticated account.
type Profile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	EntityID *int64 `json:"entity_id"`
}

// Account is either an *AdminAccount or an *EntityUserAccount.
type Account interface {
	Role() Role
	Profile() Profile
	passwordHash() string
}

type AdminAccount struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	Phone        string    `json:"celular"`
	PasswordHash string    `json:"-"`
	AccessLevel  string    `json:"tipo_acesso"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *AdminAccount) Role() Role { return RoleAdmin }

func (a *AdminAccount) Profile() Profile {
	return Profile{ID: a.ID, Name: a.Name, Email: a.Email, Role: RoleAdmin}
}

func (a *AdminAccount) passwordHash() string { return a.PasswordHash }

// EntityUserAccount belongs to the entity whose email matches its own.
// EntityID is nil when no entity row carries that email.
type EntityUserAccount struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	EntityID     *int64
	EntityName   string
	CreatedAt    time.Time
}

func (e *EntityUserAccount) Role() Role { return RoleEntity }

func (e *EntityUserAccount) Profile() Profile {
	return Profile{ID: e.ID, Name: e.Name, Email: e.Email, Role: RoleEntity, EntityID: e.EntityID}
}

func (e *EntityUserAccount) passwordHash() string { return e.PasswordHash }

// Identity is what a verified bearer token says about the caller.
type Identity struct {
	ID       int64
	Email    string
	Role     Role
	EntityID *int64
}

// CanAccessEntity reports whether the caller may read or change data owned
// by entityID. Admins see everything; entity users only their own entity.
func (id *Identity) CanAccessEntity(entityID int64) bool {
	if id == nil {
		return false
	}
	if id.Role == RoleAdmin {
		return true
	}
	return id.EntityID != nil && *id.EntityID == entityID
}
