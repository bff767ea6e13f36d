package models

import "time"

// User represents an application user stored in the users table. Accounts are
// created exclusively through Google OAuth.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	Provider     string    `db:"provider" json:"provider"`
	ProviderID   string    `db:"provider_id" json:"-"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	ReviewsCount int       `db:"reviews_count" json:"reviews_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserInfo is the public projection returned by auth endpoints.
type UserInfo struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Info projects the user into its public shape.
func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, AvatarURL: u.AvatarURL}
}
