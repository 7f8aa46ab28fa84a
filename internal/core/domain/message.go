package domain

import "time"

// MaxMessageLength bounds the content of a single message, in characters.
const MaxMessageLength = 2000

// Message is one entry of a request's conversation. Its lifetime is bound
// to the parent request.
type Message struct {
	ID          string    `json:"id" bson:"_id"`
	RequestID   string    `json:"request_id" bson:"request_id"`
	SenderID    string    `json:"sender_id" bson:"sender_id"`
	RecipientID string    `json:"recipient_id" bson:"recipient_id"`
	Content     string    `json:"content" bson:"content"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
