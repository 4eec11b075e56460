package users

import (
	"time"

	"github.com/uptrace/bun"
)

// UserSchema represents the users table schema. EmailFolded holds Email after Unicode
// case folding; case-insensitive uniqueness and filtering use it.
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Email       *string   `bun:"email,unique" json:"email"`
	EmailFolded *string   `bun:"email_folded" json:"-"`
	Name        string    `bun:"name,notnull" json:"name"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	Profile *ProfileSchema `bun:"rel:has-one,join:id=user_id" json:"profile,omitempty"`
}

// ProfileSchema represents the profiles table schema
type ProfileSchema struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID     int64  `bun:"id,pk,autoincrement" json:"id"`
	Bio    string `bun:"bio,notnull" json:"bio"`
	UserID int64  `bun:"user_id,notnull,unique" json:"user_id"`
}

// Helper conversion functions
func UserSchemaToUser(schema *UserSchema) *User {
	user := &User{
		ID:        schema.ID,
		Email:     schema.Email,
		Name:      schema.Name,
		CreatedAt: schema.CreatedAt,
	}

	if schema.Profile != nil {
		user.Profile = ProfileSchemaToProfile(schema.Profile)
	}

	return user
}

func ProfileSchemaToProfile(schema *ProfileSchema) *Profile {
	return &Profile{
		ID:     schema.ID,
		Bio:    schema.Bio,
		UserID: schema.UserID,
	}
}
