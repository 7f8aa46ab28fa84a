package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// RatingService lets a client rate a finalized request exactly once.
type RatingService struct {
	stores    Stores
	publisher ports.EventPublisher
	now       func() time.Time
	log       zerolog.Logger
}

func NewRatingService(stores Stores, publisher ports.EventPublisher, log zerolog.Logger) *RatingService {
	return &RatingService{
		stores:    stores,
		publisher: publisherOrNop(publisher),
		now:       utcNow,
		log:       log,
	}
}

// Rate creates the rating and flips the request's rated flag in one
// transaction. Either both writes land or neither does.
func (s *RatingService) Rate(ctx context.Context, actor domain.Principal, requestID string, stars int, comment string) (*domain.Rating, error) {
	if err := domain.Authorize(actor.Role, domain.RoleClient); err != nil {
		return nil, err
	}
	if !domain.ValidStars(stars) {
		return nil, domain.Validationf("stars must be between %d and %d", domain.MinStars, domain.MaxStars)
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > domain.MaxCommentLength {
		return nil, domain.Validationf("comment exceeds %d characters", domain.MaxCommentLength)
	}

	req, err := s.stores.Requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("rate request: %w", err)
	}
	switch {
	case req.ClientID != actor.Subject:
		return nil, fmt.Errorf("rate request: client does not own request: %w", domain.ErrIllegalState)
	case req.State != domain.StateFinalized:
		return nil, fmt.Errorf("rate request: state is %s: %w", req.State, domain.ErrIllegalState)
	case req.Rated:
		return nil, domain.ErrAlreadyRated
	}

	rating := &domain.Rating{
		RequestID:  req.ID,
		ClientID:   req.ClientID,
		ProviderID: req.ProviderID,
		Stars:      stars,
		Comment:    comment,
		CreatedAt:  s.now(),
	}
	err = s.stores.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.stores.Ratings.Insert(ctx, rating); err != nil {
			return err
		}
		return s.stores.Requests.MarkRated(ctx, req.ID, req.ClientID)
	})
	if err != nil {
		return nil, fmt.Errorf("rate request: %w", err)
	}

	req.Rated = true
	s.log.Info().Str("request_id", req.ID).Str("provider_id", req.ProviderID).Int("stars", stars).Msg("request rated")
	s.publisher.Publish(ctx, domain.NewLifecycleEvent(domain.EventRequestRated, req, actor.Subject, rating.CreatedAt))
	return rating, nil
}

// ListForProvider returns every rating of a provider and their average.
func (s *RatingService) ListForProvider(ctx context.Context, providerID string) (*ports.ProviderRatings, error) {
	ratings, err := s.stores.Ratings.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	out := &ports.ProviderRatings{ProviderID: providerID, Items: ratings, Count: len(ratings)}
	if out.Items == nil {
		out.Items = []*domain.Rating{}
	}
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r.Stars
		}
		out.Average = float64(sum) / float64(len(ratings))
	}
	return out, nil
}
