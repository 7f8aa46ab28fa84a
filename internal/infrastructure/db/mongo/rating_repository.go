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

// RatingRepository implements ports.RatingRepository using MongoDB.
type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) ports.RatingRepository {
	return &RatingRepository{col: db.Collection(collectionRatings)}
}

// Insert stores a rating. The unique index on request_id turns a second
// rating for the same request into domain.ErrAlreadyRated.
func (r *RatingRepository) Insert(ctx context.Context, rating *domain.Rating) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if rating.ID == "" {
		rating.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, rating); err != nil {
		return conflictOnDuplicate(err, domain.ErrAlreadyRated)
	}
	return nil
}

func (r *RatingRepository) ListByProvider(ctx context.Context, providerID string) ([]*domain.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"provider_id": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}
	defer cur.Close(ctx)

	ratings := []*domain.Rating{}
	if err := cur.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("decode ratings: %w", err)
	}
	return ratings, nil
}
