package service

import (
	"context"
	"fmt"
	"time"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Stores groups the repositories shared by the use cases.
type Stores struct {
	Accounts  ports.AccountRepository
	Offerings ports.OfferingRepository
	Requests  ports.RequestRepository
	Messages  ports.MessageRepository
	Ratings   ports.RatingRepository
	Tx        ports.Transactor
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.LifecycleEvent) {}

func publisherOrNop(p ports.EventPublisher) ports.EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func utcNow() time.Time { return time.Now().UTC() }

// purgeOffering deletes an offering, its requests and their messages. It must
// run inside a transaction.
func purgeOffering(ctx context.Context, stores Stores, offeringID string) (int64, error) {
	ids, err := stores.Requests.ListIDsByOffering(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	if err := purgeMessages(ctx, stores, ids); err != nil {
		return 0, err
	}
	n, err := stores.Requests.DeleteByOffering(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	return n, stores.Offerings.DeleteByID(ctx, offeringID)
}

// purgeClientRequests deletes every request of a client and their messages.
func purgeClientRequests(ctx context.Context, stores Stores, clientID string) (int64, error) {
	ids, err := stores.Requests.ListIDsByClient(ctx, clientID)
	if err != nil {
		return 0, err
	}
	if err := purgeMessages(ctx, stores, ids); err != nil {
		return 0, err
	}
	return stores.Requests.DeleteByClient(ctx, clientID)
}

func purgeMessages(ctx context.Context, stores Stores, requestIDs []string) error {
	for _, id := range requestIDs {
		if _, err := stores.Messages.DeleteByRequest(ctx, id); err != nil {
			return fmt.Errorf("purge messages of %s: %w", id, err)
		}
	}
	return nil
}

// normalizePage applies the default and the cap used by every listing.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
