package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var testTracer = noop.NewTracerProvider().Tracer("test")

// Mock DocumentStore
type mockDocumentStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	readErr   error
	commitErr error
	commits   []domain.Batch
	reads     int

	// readBarrier, when set, holds every GetProduct until the barrier is released
	readBarrier *sync.WaitGroup
}

func newMockDocumentStore(products ...*domain.Product) *mockDocumentStore {
	m := &mockDocumentStore{products: make(map[string]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockDocumentStore) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	m.reads++
	if m.readErr != nil {
		m.mu.Unlock()
		return nil, m.readErr
	}
	p, ok := m.products[productID]
	var out *domain.Product
	if ok {
		cp := *p
		cp.Variants = p.CloneVariants()
		out = &cp
	}
	barrier := m.readBarrier
	m.mu.Unlock()

	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}
	return out, nil
}

func (m *mockDocumentStore) CommitBatch(ctx context.Context, batch domain.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commitErr != nil {
		return m.commitErr
	}
	for _, patch := range batch.Patches {
		if p, ok := m.products[patch.ProductID]; ok {
			p.Variants = patch.Variants
		}
	}
	m.commits = append(m.commits, batch)
	return nil
}

func (m *mockDocumentStore) stock(productID, variantID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[productID]
	return p.Variants[p.VariantIndex(variantID)].StockQuantity
}

// Mock metrics
type mockMetrics struct {
	mu       sync.Mutex
	fetches  map[string]int
	items    map[domain.ItemOutcome]int
	commits  int
	failures int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{
		fetches: make(map[string]int),
		items:   make(map[domain.ItemOutcome]int),
	}
}

func (m *mockMetrics) ObserveFetch(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[outcome]++
}

func (m *mockMetrics) ObserveItem(outcome domain.ItemOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[outcome]++
}

func (m *mockMetrics) ObserveCommit(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failures++
		return
	}
	m.commits++
}

// Mock CacheStorage
type mockCacheStorage struct {
	mu      sync.Mutex
	stores  map[string]*mockCacheStore
	openErr error
	putErr  error
}

func newMockCacheStorage() *mockCacheStorage {
	return &mockCacheStorage{stores: make(map[string]*mockCacheStore)}
}

func (m *mockCacheStorage) OpenOrCreate(ctx context.Context, name string) (port.CacheStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	s, ok := m.stores[name]
	if !ok {
		s = &mockCacheStore{parent: m, name: name, entries: make(map[string]*domain.CachedResponse)}
		m.stores[name] = s
	}
	return s, nil
}

func (m *mockCacheStorage) ListNames(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.stores))
	for name := range m.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[name]; !ok {
		return false, nil
	}
	delete(m.stores, name)
	return true, nil
}

func (m *mockCacheStorage) entryCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[name]
	if !ok {
		return 0
	}
	return len(s.entries)
}

type mockCacheStore struct {
	parent  *mockCacheStorage
	name    string
	entries map[string]*domain.CachedResponse
	puts    int
}

func (s *mockCacheStore) Name() string { return s.name }

func (s *mockCacheStore) Get(ctx context.Context, key string) (*domain.CachedResponse, bool, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	c, ok := s.entries[key]
	return c, ok, nil
}

func (s *mockCacheStore) Put(ctx context.Context, key string, resp *domain.CachedResponse) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.parent.putErr != nil {
		return s.parent.putErr
	}
	s.entries[key] = resp
	s.puts++
	return nil
}

func (s *mockCacheStore) PutAll(ctx context.Context, entries map[string]*domain.CachedResponse) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	if s.parent.putErr != nil {
		return s.parent.putErr
	}
	for k, v := range entries {
		s.entries[k] = v
	}
	s.puts += len(entries)
	return nil
}

// Mock Fetcher
type mockFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	err       error
	calls     []string
}

type fakeResponse struct {
	status int
	body   string
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{responses: make(map[string]fakeResponse)}
}

func (f *mockFetcher) respond(url string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = fakeResponse{status: status, body: body}
}

func (f *mockFetcher) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.URL.String())
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.responses[req.URL.String()]
	if !ok {
		r = fakeResponse{status: http.StatusNotFound, body: "not found"}
	}
	return &http.Response{
		Status:     http.StatusText(r.status),
		StatusCode: r.status,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Request:    req,
	}, nil
}

func (f *mockFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// Mock CustomerRepository
type mockCustomerRepo struct {
	mu       sync.Mutex
	stats    map[string]*domain.CustomerStats
	profiles map[string]domain.CustomerProfile
	err      error
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{
		stats:    make(map[string]*domain.CustomerStats),
		profiles: make(map[string]domain.CustomerProfile),
	}
}

func (m *mockCustomerRepo) RecordOrder(ctx context.Context, customerID string, total float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	st, ok := m.stats[customerID]
	if !ok {
		st = &domain.CustomerStats{CustomerID: customerID}
		m.stats[customerID] = st
	}
	st.OrderCount++
	st.TotalSpent += total
	if at.After(st.LastOrderAt) {
		st.LastOrderAt = at
	}
	return nil
}

func (m *mockCustomerRepo) GetStats(ctx context.Context, customerID string) (*domain.CustomerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[customerID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (m *mockCustomerRepo) CreateProfileIfAbsent(ctx context.Context, profile domain.CustomerProfile) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.profiles[profile.CustomerID]; ok {
		return false, nil
	}
	m.profiles[profile.CustomerID] = profile
	return true, nil
}

// Mock ContactRepository + Mailer
type mockContactRepo struct {
	mu    sync.Mutex
	saved []domain.ContactMessage
	err   error
}

func (m *mockContactRepo) SaveContactMessage(ctx context.Context, msg domain.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, msg)
	return nil
}

type mockMailer struct {
	mu   sync.Mutex
	sent []domain.Email
	err  error
}

func (m *mockMailer) Send(ctx context.Context, email domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

var errBoom = errors.New("boom")
