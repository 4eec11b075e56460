package users

import (
	"time"
)

// User represents a row of the users table
type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Email     *string   `json:"email" yaml:"email"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Profile   *Profile  `json:"profile,omitempty" yaml:"profile,omitempty"`
}

// Profile is owned by exactly one user
type Profile struct {
	ID     int64  `json:"id" yaml:"id"`
	Bio    string `json:"bio" yaml:"bio"`
	UserID int64  `json:"user_id" yaml:"user_id"`
}

// CreateUserRequest represents the request to create a user, optionally together with its profile
type CreateUserRequest struct {
	Name           string                `json:"name"`
	Email          *string               `json:"email,omitempty"`
	Profile        *CreateProfileRequest `json:"profile,omitempty"`
	IncludeProfile bool                  `json:"include_profile,omitempty"`
}

// CreateProfileRequest is the nested profile payload of CreateUserRequest
type CreateProfileRequest struct {
	Bio string `json:"bio"`
}

// FindFirstRequest matches users whose email contains EmailContains, ignoring case
type FindFirstRequest struct {
	EmailContains  string `json:"email_contains" form:"email_contains"`
	IncludeProfile bool   `json:"include_profile,omitempty" form:"include_profile"`
}

// FindManyRequest pages through users ordered by name
type FindManyRequest struct {
	Skip           int  `json:"skip" form:"skip"`
	Take           int  `json:"take" form:"take"`
	IncludeProfile bool `json:"include_profile,omitempty" form:"include_profile"`
}

// UpdateUserRequest overwrites the non-nil fields of the user with exactly Email
type UpdateUserRequest struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

// DeleteUserRequest removes the user with exactly Email
type DeleteUserRequest struct {
	Email string `json:"email"`
}
