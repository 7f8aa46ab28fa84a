package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

func newRatingSvc(m *memStore, pub *recordingPublisher) *RatingService {
	svc := NewRatingService(m.stores(), pub, discardLogger)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestRatingService_Rate_Success(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StateFinalized)
	pub := &recordingPublisher{}
	svc := newRatingSvc(m, pub)

	rating, err := svc.Rate(context.Background(), asClient, "r1", 4, " solid work ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rating.Stars != 4 || rating.Comment != "solid work" || rating.ProviderID != providerX {
		t.Errorf("unexpected rating: %+v", rating)
	}
	if stored, _ := m.request("r1"); !stored.Rated {
		t.Error("expected request flagged as rated")
	}
	if ev := pub.types(); len(ev) != 1 || ev[0] != domain.EventRequestRated {
		t.Errorf("expected request.rated, got %v", ev)
	}
}

func TestRatingService_Rate_StarsOutOfRange(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StateFinalized)
	svc := newRatingSvc(m, &recordingPublisher{})

	for _, stars := range []int{0, 6, -1} {
		if _, err := svc.Rate(context.Background(), asClient, "r1", stars, ""); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("stars=%d: expected ErrValidation, got %v", stars, err)
		}
	}
	if _, err := svc.Rate(context.Background(), asClient, "r1", 1, strings.Repeat("c", domain.MaxCommentLength+1)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("long comment: expected ErrValidation, got %v", err)
	}
}

func TestRatingService_Rate_IllegalState(t *testing.T) {
	cases := []struct {
		name  string
		state domain.RequestState
		rated bool
		actor domain.Principal
	}{
		{"pending", domain.StatePending, false, asClient},
		{"accepted", domain.StateAccepted, false, asClient},
		{"already rated", domain.StateFinalized, true, asClient},
		{"not the client", domain.StateFinalized, false, asOther},
	}
	for _, tc := range cases {
		m := seededStore()
		m.putRequest("r1", tc.state)
		m.requests["r1"].Rated = tc.rated
		_, err := newRatingSvc(m, &recordingPublisher{}).Rate(context.Background(), tc.actor, "r1", 3, "")
		if !errors.Is(err, domain.ErrIllegalState) {
			t.Errorf("%s: expected ErrIllegalState, got %v", tc.name, err)
		}
		if len(m.ratings) != 0 {
			t.Errorf("%s: expected no rating stored", tc.name)
		}
	}
}

func TestRatingService_Rate_ProviderForbidden(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StateFinalized)

	if _, err := newRatingSvc(m, &recordingPublisher{}).Rate(context.Background(), asProvider, "r1", 5, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRatingService_Rate_NotFound(t *testing.T) {
	if _, err := newRatingSvc(seededStore(), &recordingPublisher{}).Rate(context.Background(), asClient, "missing", 5, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRatingService_Rate_FlagFailureRollsBackRating(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StateFinalized)
	m.failMarkRated = domain.ErrConcurrentModification
	pub := &recordingPublisher{}

	_, err := newRatingSvc(m, pub).Rate(context.Background(), asClient, "r1", 5, "")
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if len(m.ratings) != 0 {
		t.Error("expected rating rolled back")
	}
	if stored, _ := m.request("r1"); stored.Rated {
		t.Error("expected request still unrated")
	}
	if len(pub.types()) != 0 {
		t.Errorf("expected no event, got %v", pub.types())
	}
}

func TestRatingService_Rate_RacingDelete(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := seededStore()
		m.putRequest("r1", domain.StateFinalized)
		rating := newRatingSvc(m, &recordingPublisher{})
		requests := newRequestSvc(m, &recordingPublisher{}, nil, RequestOptions{})

		start := make(chan struct{})
		var (
			wg        sync.WaitGroup
			rateErr   error
			deleted   bool
			deleteErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, rateErr = rating.Rate(context.Background(), asClient, "r1", 4, "")
		}()
		go func() {
			defer wg.Done()
			<-start
			deleted, deleteErr = requests.DeleteIfFinalized(context.Background(), asClient, "r1")
		}()
		close(start)
		wg.Wait()

		if rateErr != nil && !deleted {
			t.Fatalf("run %d: both lost (rate %v, delete %v)", i, rateErr, deleteErr)
		}
		stored, found := m.request("r1")
		rated := len(m.ratings) == 1
		switch {
		case rateErr != nil && rated:
			t.Fatalf("run %d: failed rate left a rating behind: %v", i, rateErr)
		case rateErr == nil && !rated:
			t.Fatalf("run %d: successful rate stored no rating", i)
		case found && stored.Rated != rated:
			t.Fatalf("run %d: rated flag %v disagrees with stored rating %v", i, stored.Rated, rated)
		case found == deleted:
			t.Fatalf("run %d: delete reported %v but request present=%v (err %v)", i, deleted, found, deleteErr)
		}
	}
}

func TestRatingService_ListForProvider(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StateFinalized)
	m.putRequest("r2", domain.StateFinalized)
	svc := newRatingSvc(m, &recordingPublisher{})
	if _, err := svc.Rate(context.Background(), asClient, "r1", 5, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Rate(context.Background(), asClient, "r2", 2, ""); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.ListForProvider(context.Background(), providerX)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.Count != 2 || summary.Average != 3.5 {
		t.Errorf("expected 2 ratings averaging 3.5, got %d/%v", summary.Count, summary.Average)
	}

	empty, err := svc.ListForProvider(context.Background(), providerY)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if empty.Count != 0 || empty.Average != 0 || empty.Items == nil {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}
