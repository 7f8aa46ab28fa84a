package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// RequestRepository stores service requests. Every mutation filters on the
// expected state so a stale writer matches nothing.
type RequestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{col: db.Collection(collectionRequests)}
}

// Create inserts a new request document, assigning its id.
func (r *RequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if req.ID == "" {
		req.ID = newID()
	}
	if _, err := r.col.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var req domain.ServiceRequest
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		return nil, notFound(err, domain.ErrRequestNotFound)
	}
	return &req, nil
}

// List returns one page of listed requests, newest first, and the total match count.
func (r *RequestRepository) List(ctx context.Context, f ports.ListRequestsFilter) ([]*domain.ServiceRequest, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"state": bson.M{"$ne": string(domain.StateRejected)}}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.ProviderID != "" {
		filter["provider_id"] = f.ProviderID
	}
	if f.State != "" {
		filter["state"] = string(f.State)
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find requests: %w", err)
	}
	defer cur.Close(ctx)

	items := []*domain.ServiceRequest{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode requests: %w", err)
	}
	return items, total, nil
}

func (r *RequestRepository) ListIDsByOffering(ctx context.Context, offeringID string) ([]string, error) {
	return r.listIDs(ctx, bson.M{"offering_id": offeringID})
}

func (r *RequestRepository) ListIDsByClient(ctx context.Context, clientID string) ([]string, error) {
	return r.listIDs(ctx, bson.M{"client_id": clientID})
}

func (r *RequestRepository) listIDs(ctx context.Context, filter bson.M) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find request ids: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode request id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

func (r *RequestRepository) TransitionState(ctx context.Context, id string, from, to domain.RequestState, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "state": string(from)},
		bson.M{"$set": bson.M{"state": string(to), "updated_at": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("transition request: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *RequestRepository) MarkRated(ctx context.Context, id, clientID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":       id,
			"client_id": clientID,
			"state":     string(domain.StateFinalized),
			"rated":     false,
		},
		bson.M{"$set": bson.M{"rated": true}},
	)
	if err != nil {
		return fmt.Errorf("mark rated: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *RequestRepository) DeleteInState(ctx context.Context, id string, state domain.RequestState) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "state": string(state)})
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *RequestRepository) DeleteByOffering(ctx context.Context, offeringID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"offering_id": offeringID})
}

func (r *RequestRepository) DeleteByClient(ctx context.Context, clientID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"client_id": clientID})
}

func (r *RequestRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete requests: %w", err)
	}
	return res.DeletedCount, nil
}
