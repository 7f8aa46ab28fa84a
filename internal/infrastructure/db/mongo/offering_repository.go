package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

type OfferingRepository struct {
	col *mongo.Collection
}

func NewOfferingRepository(db *mongo.Database) *OfferingRepository {
	return &OfferingRepository{col: db.Collection(collectionOfferings)}
}

func (r *OfferingRepository) Create(ctx context.Context, o *domain.ServiceOffering) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if o.ID == "" {
		o.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("insert offering: %w", err)
	}
	return nil
}

func (r *OfferingRepository) FindByID(ctx context.Context, id string) (*domain.ServiceOffering, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o domain.ServiceOffering
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, notFound(err, domain.ErrOfferingNotFound)
	}
	return &o, nil
}

func (r *OfferingRepository) FindByOwner(ctx context.Context, providerID string) ([]*domain.ServiceOffering, error) {
	return r.find(ctx, bson.M{"provider_id": providerID})
}

func (r *OfferingRepository) FindAll(ctx context.Context) ([]*domain.ServiceOffering, error) {
	return r.find(ctx, bson.M{})
}

func (r *OfferingRepository) find(ctx context.Context, filter bson.M) ([]*domain.ServiceOffering, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find offerings: %w", err)
	}
	defer cur.Close(ctx)

	items := []*domain.ServiceOffering{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode offerings: %w", err)
	}
	return items, nil
}

// Update rewrites the editable fields. Ownership never changes.
func (r *OfferingRepository) Update(ctx context.Context, o *domain.ServiceOffering) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": o.ID, "provider_id": o.ProviderID},
		bson.M{"$set": bson.M{
			"name":        o.Name,
			"description": o.Description,
			"price":       o.Price,
			"updated_at":  o.UpdatedAt.UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrOfferingNotFound
	}
	return nil
}

func (r *OfferingRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete offering: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrOfferingNotFound
	}
	return nil
}
