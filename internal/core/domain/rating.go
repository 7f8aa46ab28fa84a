package domain

import "time"

const (
	MinStars         = 1
	MaxStars         = 5
	MaxCommentLength = 1000
)

// Rating is the single review a client leaves on a finalized request.
type Rating struct {
	ID         string    `json:"id" bson:"_id"`
	RequestID  string    `json:"request_id" bson:"request_id"`
	ClientID   string    `json:"client_id" bson:"client_id"`
	ProviderID string    `json:"provider_id" bson:"provider_id"`
	Stars      int       `json:"stars" bson:"stars"`
	Comment    string    `json:"comment" bson:"comment"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// ValidStars reports whether stars lies in [MinStars, MaxStars].
func ValidStars(stars int) bool {
	return stars >= MinStars && stars <= MaxStars
}
