package model

import "time"

// GlobalRoom is the id of the single broadcast room every connection joins.
const GlobalRoom = "global"

// GlobalMessage is one persisted post in the global room.
type GlobalMessage struct {
	ID        string
	SenderID  string
	Content   string
	RoomID    string
	Timestamp time.Time
}

// PrivateMessage is one persisted direct message. IsRead only ever moves
// from false to true.
type PrivateMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	Content    string
	Timestamp  time.Time
	IsRead     bool
}

// GlobalMessageView is a GlobalMessage with the sender resolved to a profile.
type GlobalMessageView struct {
	ID        string    `json:"id"`
	Sender    Profile   `json:"senderId"`
	Content   string    `json:"content"`
	RoomID    string    `json:"roomId"`
	Timestamp time.Time `json:"timestamp"`
}

// PrivateMessageView is a PrivateMessage with both parties resolved.
type PrivateMessageView struct {
	ID        string    `json:"id"`
	Sender    Profile   `json:"senderId"`
	Receiver  Profile   `json:"receiverId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// ReadReceipt reports that ReaderID has read MessageID.
type ReadReceipt struct {
	MessageID string `json:"messageId"`
	ReaderID  string `json:"readerId"`
}
