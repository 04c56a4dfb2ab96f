package biz

import (
	"context"
	"sync"
	"time"

	"go-shortlink/internal/domain"
)

type fakeLinkRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Link

	createErr    error
	failCreates  int // conflicts to report before accepting
	getErr       error
	createCalls  int
	getCodeCalls int
	triedCodes   []string
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{byID: make(map[int64]*domain.Link)}
}

func (m *fakeLinkRepo) seed(l *domain.Link) *domain.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	l.ID = m.nextID
	m.byID[l.ID] = l
	return l
}

func (m *fakeLinkRepo) Create(_ context.Context, l *domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.triedCodes = append(m.triedCodes, l.ShortCode)
	if m.createErr != nil {
		return m.createErr
	}
	if m.failCreates > 0 {
		m.failCreates--
		return domain.ErrCodeConflict
	}
	for _, existing := range m.byID {
		if existing.ShortCode == l.ShortCode {
			return domain.ErrCodeConflict
		}
	}
	m.nextID++
	l.ID = m.nextID
	stored := *l
	m.byID[l.ID] = &stored
	return nil
}

func (m *fakeLinkRepo) GetByCode(_ context.Context, code string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCodeCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, l := range m.byID {
		if l.ShortCode == code {
			c := *l
			return &c, nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (m *fakeLinkRepo) owned(id int64, owner string) (*domain.Link, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	l, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrLinkNotFound
	}
	if l.OwnerID != owner {
		return nil, domain.ErrForbidden
	}
	return l, nil
}

func (m *fakeLinkRepo) GetForOwner(_ context.Context, id int64, owner string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	c := *l
	return &c, nil
}

func (m *fakeLinkRepo) ListByOwner(_ context.Context, owner string, page, pageSize int) ([]*domain.Link, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.Link
	for id := int64(1); id <= m.nextID; id++ {
		if l, ok := m.byID[id]; ok && l.OwnerID == owner {
			all = append(all, l)
		}
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*domain.Link{}, len(all), nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *fakeLinkRepo) Update(_ context.Context, id int64, owner string, patch *domain.LinkPatch) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	patch.Apply(l, time.Now().UTC())
	c := *l
	return &c, nil
}

func (m *fakeLinkRepo) Delete(_ context.Context, id int64, owner string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	delete(m.byID, id)
	return l, nil
}

type fakeLinkCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
	ttls    map[string]time.Duration

	getErr        error
	setErr        error
	invalidateErr error
	getCalls      int
	setCalls      int
	invalidated   []string
}

func newFakeLinkCache() *fakeLinkCache {
	return &fakeLinkCache{
		entries: make(map[string]domain.CacheEntry),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeLinkCache) Get(_ context.Context, code string) (*domain.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.getErr != nil {
		return nil, c.getErr
	}
	e, ok := c.entries[code]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return &e, nil
}

func (c *fakeLinkCache) Set(_ context.Context, e *domain.CacheEntry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[e.ShortCode] = *e
	c.ttls[e.ShortCode] = ttl
	return nil
}

func (c *fakeLinkCache) Invalidate(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, code)
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	delete(c.entries, code)
	return nil
}

func (c *fakeLinkCache) has(code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[code]
	return ok
}

type fakeClickRepo struct {
	mu        sync.Mutex
	inserted  []*domain.Click
	calls     int
	insertErr error
	block     chan struct{}

	count      int64
	page       *domain.ClickPage
	stats      *domain.ClickStats
	aggregates []domain.StatsQuery
	listLimit  int
	listCursor string
}

func (r *fakeClickRepo) Insert(ctx context.Context, c *domain.Click) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, c)
	return nil
}

func (r *fakeClickRepo) CountByLink(context.Context, int64) (int64, error) {
	return r.count, nil
}

func (r *fakeClickRepo) ListByLink(_ context.Context, _ int64, cursor string, limit int) (*domain.ClickPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCursor, r.listLimit = cursor, limit
	if r.page == nil {
		return &domain.ClickPage{}, nil
	}
	return r.page, nil
}

func (r *fakeClickRepo) Aggregate(_ context.Context, q domain.StatsQuery) (*domain.ClickStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates = append(r.aggregates, q)
	if r.stats == nil {
		return &domain.ClickStats{GeneratedAt: q.Now}, nil
	}
	return r.stats, nil
}

func (r *fakeClickRepo) insertedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inserted)
}

func (r *fakeClickRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeClickSink struct {
	mu     sync.Mutex
	clicks []*domain.Click
}

func (s *fakeClickSink) Record(c *domain.Click) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks = append(s.clicks, c)
	return true
}

func (s *fakeClickSink) recorded() []*domain.Click {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.Click(nil), s.clicks...)
}

type fakeStatsCache struct {
	entries map[string]*domain.ClickStats
	getErr  error
	ttl     time.Duration
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{entries: make(map[string]*domain.ClickStats)}
}

func (c *fakeStatsCache) Get(_ context.Context, key string) (*domain.ClickStats, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	s, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return s, nil
}

func (c *fakeStatsCache) Set(_ context.Context, key string, s *domain.ClickStats, ttl time.Duration) error {
	c.entries[key] = s
	c.ttl = ttl
	return nil
}

type fakeEnricher struct{}

func (fakeEnricher) Enrich(c *domain.Click) {
	c.DeviceType = "Desktop"
	c.TrafficSource = "Direct"
	c.CountryCode = "Unknown"
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
