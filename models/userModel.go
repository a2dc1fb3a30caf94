package models

import "time"

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User is the identity read model joined into projections (customer and seller names).
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(191)"`
	Image     string    `json:"image"`
	Role      string    `json:"role" gorm:"type:varchar(20);not null;default:user"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Caller is the authenticated identity attached to a request.
type Caller struct {
	ID    string
	Email string
	Role  string
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
