package model

import "time"

// Contact links an owner to another user. The pair is unique.
type Contact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Contact   Profile   `json:"contactId"`
	CreatedAt time.Time `json:"createdAt"`
}
