// Package model defines the data structures shared by the store, services,
// and transports.
package model

import "time"

// User is a registered account.
//
// Email and PasswordHash never leave the server except through the owner's
// own /api/me view, which still drops the hash. GitHubID is zero for
// accounts created with email/password.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	PasswordHash   string    `json:"-"`
	GitHubID       int64     `json:"githubId,omitempty"`
	ProfilePicture string    `json:"profilePicture"`
	Bio            string    `json:"bio"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Public returns a copy of u safe to show to other users.
func (u *User) Public() *User {
	pub := *u
	pub.Email = ""
	pub.GitHubID = 0
	return &pub
}

// Profile returns the display projection of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// Profile is the public identity attached to messages, questions and
// answers in place of a bare user id.
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}
