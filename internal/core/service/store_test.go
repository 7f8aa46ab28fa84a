package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store shared by every stub repository
// ---------------------------------------------------------------------------

// memStore mirrors the conditional writes of the Mongo repositories.
// Transactions keep an undo journal and hold a write lock on every key they
// touch until they end, so a rollback only undoes its own writes and a second
// writer of a locked key loses with ErrConcurrentModification, as a Mongo
// write conflict would.
type memStore struct {
	mu        sync.Mutex
	seq       int
	accounts  map[string]*domain.Account
	offerings map[string]*domain.ServiceOffering
	requests  map[string]*domain.ServiceRequest
	messages  []*domain.Message
	ratings   map[string]*domain.Rating // keyed by request id
	locks     map[string]*memJournal

	// beforeTransition runs before the compare-and-set of TransitionState,
	// outside the lock, so a test can play the other side of a race.
	beforeTransition func(id string)
	// failMarkRated, if set, is returned by MarkRated.
	failMarkRated error
	txCount       int
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  make(map[string]*domain.Account),
		offerings: make(map[string]*domain.ServiceOffering),
		requests:  make(map[string]*domain.ServiceRequest),
		ratings:   make(map[string]*domain.Rating),
		locks:     make(map[string]*memJournal),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) stores() Stores {
	return Stores{
		Accounts:  memAccounts{m},
		Offerings: memOfferings{m},
		Requests:  memRequests{m},
		Messages:  memMessages{m},
		Ratings:   memRatings{m},
		Tx:        memTx{m},
	}
}

type memJournal struct {
	undo []func()
	keys []string
}

type journalKey struct{}

func journalFrom(ctx context.Context) *memJournal {
	j, _ := ctx.Value(journalKey{}).(*memJournal)
	return j
}

// write claims key for the transaction in ctx and records undo. It must be
// called with m.mu held, before the mutation.
func (m *memStore) write(ctx context.Context, key string, undo func()) error {
	j := journalFrom(ctx)
	if owner, ok := m.locks[key]; ok && owner != j {
		return domain.ErrConcurrentModification
	}
	if j == nil {
		return nil
	}
	if _, ok := m.locks[key]; !ok {
		m.locks[key] = j
		j.keys = append(j.keys, key)
	}
	j.undo = append(j.undo, undo)
	return nil
}

type memTx struct{ m *memStore }

func (t memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}
	t.m.mu.Lock()
	t.m.txCount++
	t.m.mu.Unlock()

	j := &memJournal{}
	err := fn(context.WithValue(ctx, journalKey{}, j))

	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if err != nil {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
	}
	for _, key := range j.keys {
		delete(t.m.locks, key)
	}
	return err
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

type memAccounts struct{ m *memStore }

func (r memAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, a := range r.m.accounts {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r memAccounts) ExistsByID(_ context.Context, id string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.accounts[id]
	return ok, nil
}

func (r memAccounts) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.accounts {
		if existing.Email == a.Email {
			return nil, domain.ErrAccountExists
		}
	}
	clone := *a
	if clone.ID == "" {
		clone.ID = r.m.nextID("acc")
	}
	if err := r.m.write(ctx, "account:"+clone.ID, func() { delete(r.m.accounts, clone.ID) }); err != nil {
		return nil, err
	}
	r.m.accounts[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r memAccounts) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	prev := *a
	if err := r.m.write(ctx, "account:"+id, func() { *a = prev }); err != nil {
		return err
	}
	a.Profile = a.ProfileFor(role)
	a.Role = role
	return nil
}

func (r memAccounts) DeleteByID(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if err := r.m.write(ctx, "account:"+id, func() { r.m.accounts[id] = a }); err != nil {
		return err
	}
	delete(r.m.accounts, id)
	return nil
}

// ---------------------------------------------------------------------------
// Offerings
// ---------------------------------------------------------------------------

type memOfferings struct{ m *memStore }

func (r memOfferings) FindByID(_ context.Context, id string) (*domain.ServiceOffering, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.offerings[id]
	if !ok {
		return nil, domain.ErrOfferingNotFound
	}
	clone := *o
	return &clone, nil
}

func (r memOfferings) FindByOwner(_ context.Context, providerID string) ([]*domain.ServiceOffering, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.ServiceOffering
	for _, o := range r.m.offerings {
		if o.ProviderID == providerID {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r memOfferings) FindAll(_ context.Context) ([]*domain.ServiceOffering, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.ServiceOffering
	for _, o := range r.m.offerings {
		clone := *o
		out = append(out, &clone)
	}
	return out, nil
}

func (r memOfferings) Create(ctx context.Context, o *domain.ServiceOffering) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if o.ID == "" {
		o.ID = r.m.nextID("off")
	}
	id := o.ID
	if err := r.m.write(ctx, "offering:"+id, func() { delete(r.m.offerings, id) }); err != nil {
		return err
	}
	clone := *o
	r.m.offerings[id] = &clone
	return nil
}

func (r memOfferings) Update(ctx context.Context, o *domain.ServiceOffering) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	prev, ok := r.m.offerings[o.ID]
	if !ok {
		return domain.ErrOfferingNotFound
	}
	id := o.ID
	if err := r.m.write(ctx, "offering:"+id, func() { r.m.offerings[id] = prev }); err != nil {
		return err
	}
	clone := *o
	r.m.offerings[id] = &clone
	return nil
}

func (r memOfferings) DeleteByID(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	prev, ok := r.m.offerings[id]
	if !ok {
		return domain.ErrOfferingNotFound
	}
	if err := r.m.write(ctx, "offering:"+id, func() { r.m.offerings[id] = prev }); err != nil {
		return err
	}
	delete(r.m.offerings, id)
	return nil
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type memRequests struct{ m *memStore }

func (r memRequests) Create(ctx context.Context, req *domain.ServiceRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if req.ID == "" {
		req.ID = r.m.nextID("req")
	}
	id := req.ID
	if err := r.m.write(ctx, "request:"+id, func() { delete(r.m.requests, id) }); err != nil {
		return err
	}
	clone := *req
	r.m.requests[id] = &clone
	return nil
}

func (r memRequests) FindByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

// List applies the same filters, ordering and paging as the Mongo repository.
func (r memRequests) List(_ context.Context, f ports.ListRequestsFilter) ([]*domain.ServiceRequest, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var matched []*domain.ServiceRequest
	for _, req := range r.m.requests {
		if !req.State.Listed() {
			continue
		}
		if f.ClientID != "" && req.ClientID != f.ClientID {
			continue
		}
		if f.ProviderID != "" && req.ProviderID != f.ProviderID {
			continue
		}
		if f.State != "" && req.State != f.State {
			continue
		}
		clone := *req
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.ServiceRequest{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r memRequests) ListIDsByOffering(_ context.Context, offeringID string) ([]string, error) {
	return r.ids(func(req *domain.ServiceRequest) bool { return req.OfferingID == offeringID }), nil
}

func (r memRequests) ListIDsByClient(_ context.Context, clientID string) ([]string, error) {
	return r.ids(func(req *domain.ServiceRequest) bool { return req.ClientID == clientID }), nil
}

func (r memRequests) ids(match func(*domain.ServiceRequest) bool) []string {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var ids []string
	for id, req := range r.m.requests {
		if match(req) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (r memRequests) TransitionState(ctx context.Context, id string, from, to domain.RequestState, at time.Time) error {
	if r.m.beforeTransition != nil {
		r.m.beforeTransition(id)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok || req.State != from {
		return domain.ErrConcurrentModification
	}
	prev := *req
	if err := r.m.write(ctx, "request:"+id, func() { *req = prev }); err != nil {
		return err
	}
	req.State = to
	req.UpdatedAt = at
	return nil
}

func (r memRequests) MarkRated(ctx context.Context, id, clientID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failMarkRated != nil {
		return r.m.failMarkRated
	}
	req, ok := r.m.requests[id]
	if !ok || req.ClientID != clientID || req.State != domain.StateFinalized || req.Rated {
		return domain.ErrConcurrentModification
	}
	if err := r.m.write(ctx, "request:"+id, func() { req.Rated = false }); err != nil {
		return err
	}
	req.Rated = true
	return nil
}

func (r memRequests) DeleteInState(ctx context.Context, id string, state domain.RequestState) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.requests[id]
	if !ok || req.State != state {
		return domain.ErrConcurrentModification
	}
	if err := r.m.write(ctx, "request:"+id, func() { r.m.requests[id] = req }); err != nil {
		return err
	}
	delete(r.m.requests, id)
	return nil
}

func (r memRequests) DeleteByOffering(ctx context.Context, offeringID string) (int64, error) {
	return r.deleteWhere(ctx, func(req *domain.ServiceRequest) bool { return req.OfferingID == offeringID })
}

func (r memRequests) DeleteByClient(ctx context.Context, clientID string) (int64, error) {
	return r.deleteWhere(ctx, func(req *domain.ServiceRequest) bool { return req.ClientID == clientID })
}

func (r memRequests) deleteWhere(ctx context.Context, match func(*domain.ServiceRequest) bool) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, req := range r.m.requests {
		if !match(req) {
			continue
		}
		id, req := id, req
		if err := r.m.write(ctx, "request:"+id, func() { r.m.requests[id] = req }); err != nil {
			return n, err
		}
		delete(r.m.requests, id)
		n++
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Messages and ratings
// ---------------------------------------------------------------------------

type memMessages struct{ m *memStore }

func (r memMessages) Insert(ctx context.Context, msg *domain.Message) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if msg.ID == "" {
		msg.ID = r.m.nextID("msg")
	}
	id := msg.ID
	err := r.m.write(ctx, "messages:"+msg.RequestID, func() {
		r.m.messages = slices.DeleteFunc(r.m.messages, func(m *domain.Message) bool { return m.ID == id })
	})
	if err != nil {
		return err
	}
	clone := *msg
	r.m.messages = append(r.m.messages, &clone)
	return nil
}

func (r memMessages) ListByRequest(_ context.Context, requestID string) ([]*domain.Message, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Message
	for _, msg := range r.m.messages {
		if msg.RequestID == requestID {
			clone := *msg
			out = append(out, &clone)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r memMessages) DeleteByRequest(ctx context.Context, requestID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var removed, kept []*domain.Message
	for _, msg := range r.m.messages {
		if msg.RequestID == requestID {
			removed = append(removed, msg)
			continue
		}
		kept = append(kept, msg)
	}
	err := r.m.write(ctx, "messages:"+requestID, func() { r.m.messages = append(r.m.messages, removed...) })
	if err != nil {
		return 0, err
	}
	r.m.messages = kept
	return int64(len(removed)), nil
}

type memRatings struct{ m *memStore }

func (r memRatings) Insert(ctx context.Context, rating *domain.Rating) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.ratings[rating.RequestID]; ok {
		return domain.ErrAlreadyRated
	}
	if rating.ID == "" {
		rating.ID = r.m.nextID("rat")
	}
	key := rating.RequestID
	if err := r.m.write(ctx, "rating:"+key, func() { delete(r.m.ratings, key) }); err != nil {
		return err
	}
	clone := *rating
	r.m.ratings[key] = &clone
	return nil
}

func (r memRatings) ListByProvider(_ context.Context, providerID string) ([]*domain.Rating, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*domain.Rating
	for _, rating := range r.m.ratings {
		if rating.ProviderID == providerID {
			clone := *rating
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Publisher and idempotency stubs
// ---------------------------------------------------------------------------

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.LifecycleEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

const pendingKey = "\x00pending"

type stubIdempotency struct {
	mu          sync.Mutex
	keys        map[string]string
	reserveErr  error
	lookupDelay time.Duration
	released    int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Reserve(_ context.Context, scope, key string) (string, bool, error) {
	if s.reserveErr != nil {
		return "", false, s.reserveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.keys[scope+":"+key]; ok {
		if id == pendingKey {
			id = ""
		}
		return id, false, nil
	}
	s.keys[scope+":"+key] = pendingKey
	return "", true, nil
}

func (s *stubIdempotency) Lookup(_ context.Context, scope, key string) (string, error) {
	time.Sleep(s.lookupDelay)
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.keys[scope+":"+key]
	if id == pendingKey {
		return "", nil
	}
	return id, nil
}

func (s *stubIdempotency) Complete(_ context.Context, scope, key, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[scope+":"+key] = requestID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, scope+":"+key)
	s.released++
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	errBoom       = errors.New("boom")
	fixedNow      = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

const (
	clientID  = "client-1"
	otherID   = "client-2"
	providerX = "provider-x"
	providerY = "provider-y"
	adminID   = "admin-1"
)

var (
	asClient   = domain.Principal{Subject: clientID, Role: domain.RoleClient}
	asOther    = domain.Principal{Subject: otherID, Role: domain.RoleClient}
	asProvider = domain.Principal{Subject: providerX, Role: domain.RoleProvider}
	asStranger = domain.Principal{Subject: providerY, Role: domain.RoleProvider}
	asAdmin    = domain.Principal{Subject: adminID, Role: domain.RoleAdmin}
)

// seededStore holds two clients, two providers, an admin and one offering
// owned by providerX ("off-x").
func seededStore() *memStore {
	m := newMemStore()
	for id, role := range map[string]domain.Role{
		clientID:  domain.RoleClient,
		otherID:   domain.RoleClient,
		providerX: domain.RoleProvider,
		providerY: domain.RoleProvider,
		adminID:   domain.RoleAdmin,
	} {
		m.accounts[id] = &domain.Account{ID: id, Email: id + "@example.com", Role: role}
	}
	m.offerings["off-x"] = &domain.ServiceOffering{ID: "off-x", ProviderID: providerX, Name: "Plumbing", Price: 50}
	return m
}

// putRequest inserts a request directly in the given state.
func (m *memStore) putRequest(id string, state domain.RequestState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[id] = &domain.ServiceRequest{
		ID:         id,
		ClientID:   clientID,
		OfferingID: "off-x",
		ProviderID: providerX,
		State:      state,
		CreatedAt:  fixedNow,
		UpdatedAt:  fixedNow,
	}
}

func (m *memStore) putMessage(requestID, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, &domain.Message{
		ID:          m.nextID("msg"),
		RequestID:   requestID,
		SenderID:    clientID,
		RecipientID: providerX,
		Content:     content,
		CreatedAt:   fixedNow,
	})
}

func (m *memStore) request(id string) (domain.ServiceRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.ServiceRequest{}, false
	}
	return *r, true
}

func (m *memStore) messageCount(requestID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.RequestID == requestID {
			n++
		}
	}
	return n
}
