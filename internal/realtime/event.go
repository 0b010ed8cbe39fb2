package realtime

import (
	"encoding/json"
	"fmt"
)

// Inbound event types.
const (
	EventGlobalMessage  = "globalMessage"
	EventPrivateMessage = "privateMessage"
	EventMarkAsRead     = "markAsRead"
)

// Outbound event types.
const (
	EventNewGlobalMessage  = "newGlobalMessage"
	EventNewPrivateMessage = "newPrivateMessage"
	EventMessageRead       = "messageRead"
	EventMessageStatus     = "messageStatus"
	EventMessageError      = "messageError"
)

// StatusAlreadyRead is the messageStatus sent for a markAsRead on a message
// that is already read.
const StatusAlreadyRead = "already_read"

// Envelope is the wire frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound payloads. Fields are kept raw so a non-string value reaches
// validation as "" instead of failing the whole frame.
type globalMessagePayload struct {
	Content json.RawMessage `json:"content"`
}

type privateMessagePayload struct {
	ReceiverID json.RawMessage `json:"receiverId"`
	Content    json.RawMessage `json:"content"`
}

type markAsReadPayload struct {
	MessageID json.RawMessage `json:"messageId"`
	ReaderID  json.RawMessage `json:"readerId"`
}

// Outbound payloads.
type statusPayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

type errorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// str returns raw as a Go string, or "" when raw is absent or not a JSON
// string.
func str(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func encode(eventType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("realtime: encoding %s payload: %w", eventType, err)
	}
	return json.Marshal(Envelope{Type: eventType, Payload: body})
}
