package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"

	// RoleAnonymous is a pseudo-role for unauthenticated callers.
	// It is never persisted on a User row.
	RoleAnonymous Role = "anonymous"
)

// NoConfirmationCode is the sentinel stored in ConfirmationCodeHash when no
// code is outstanding. It can never equal an argon2id-encoded hash, so a token
// exchange against it always fails.
const NoConfirmationCode = "none"

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Role      Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`

	// Superuser grants admin authority regardless of Role.
	Superuser bool `gorm:"not null;default:false" json:"-"`

	// ConfirmationCodeHash holds the argon2id hash of the outstanding
	// one-time confirmation code, or NoConfirmationCode. Never the plaintext.
	ConfirmationCodeHash string `gorm:"type:varchar(255);not null;default:'none'" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveRole folds the superuser flag into the role enumeration.
func (u *User) EffectiveRole() Role {
	if u.Superuser {
		return RoleAdmin
	}
	return u.Role
}

func (u *User) IsAdmin() bool {
	return u.EffectiveRole() == RoleAdmin
}
