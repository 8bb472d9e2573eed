package model

import "time"

// Fallbacks for optional message fields
const (
	UnknownSender   = "Unknown"
	NoContent       = "No Content"
	UnknownDate     = "Unknown Date"
	TimestampFormat = time.RFC3339
)

// Message is a single chat message. Messages keep the order returned upstream.
type Message struct {
	ID                string
	SenderDisplayName string
	// BodyContent may contain markup. nil means the upstream record had no body content.
	BodyContent    *string
	CreatedAt      time.Time
	LastModifiedAt time.Time
}

// Sender returns the sender display name or UnknownSender
func (m *Message) Sender() string {
	if m.SenderDisplayName == "" {
		return UnknownSender
	}
	return m.SenderDisplayName
}

// Content returns the raw body content or NoContent
func (m *Message) Content() string {
	if m.BodyContent == nil {
		return NoContent
	}
	return *m.BodyContent
}

// Timestamp formats the creation time in UTC or returns UnknownDate
func (m *Message) Timestamp() string {
	if m.CreatedAt.IsZero() {
		return UnknownDate
	}
	return m.CreatedAt.UTC().Format(TimestampFormat)
}
