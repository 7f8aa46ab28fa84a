package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// MessageRepository implements ports.MessageRepository using MongoDB.
type MessageRepository struct {
	col *mongo.Collection
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *mongo.Database) ports.MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages)}
}

// Insert appends one message to its request's conversation.
func (r *MessageRepository) Insert(ctx context.Context, m *domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if m.ID == "" {
		m.ID = newID()
	}
	m.CreatedAt = m.CreatedAt.UTC()
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListByRequest returns the conversation oldest first. Ties on created_at are
// broken by _id, which grows with insertion order.
func (r *MessageRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"request_id": requestID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	msgs := []*domain.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, nil
}

// DeleteByRequest purges the conversation of a request.
func (r *MessageRepository) DeleteByRequest(ctx context.Context, requestID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"request_id": requestID})
	if err != nil {
		return 0, fmt.Errorf("purge messages: %w", err)
	}
	return res.DeletedCount, nil
}
