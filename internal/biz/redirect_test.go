package biz

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVisit = Visit{
	Referrer:      "https://www.google.com/",
	UserAgent:     "Mozilla/5.0",
	ClientAddress: "203.0.113.7",
}

func TestRedirectUsecase_Resolve_MissFillsCache(t *testing.T) {
	f := newLinkFixture()
	link := f.repo.seed(&domain.Link{OwnerID: "alice", ShortCode: "abc1234", TargetURL: "https://example.com"})

	target, err := f.redirect.Resolve(context.Background(), "abc1234", testVisit)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)
	assert.Equal(t, 1, f.repo.getCodeCalls)
	assert.True(t, f.cache.has("abc1234"))
	assert.Equal(t, f.opts.LinkTTL, f.cache.ttls["abc1234"])

	clicks := f.sink.recorded()
	require.Len(t, clicks, 1)
	assert.Equal(t, link.ID, clicks[0].LinkID)
	assert.Equal(t, "https://www.google.com/", clicks[0].Referrer)
	assert.Equal(t, "Mozilla/5.0", clicks[0].UserAgent)
	assert.Equal(t, "203.0.113.7", clicks[0].ClientAddress)
	assert.False(t, clicks[0].ClickedAt.IsZero())
}

func TestRedirectUsecase_Resolve_HitSkipsStore(t *testing.T) {
	f := newLinkFixture()
	f.cache.entries["cached1"] = domain.CacheEntry{ShortCode: "cached1", LinkID: 9, TargetURL: "https://cached.example.com"}

	target, err := f.redirect.Resolve(context.Background(), "cached1", testVisit)
	require.NoError(t, err)
	assert.Equal(t, "https://cached.example.com", target)
	assert.Zero(t, f.repo.getCodeCalls)

	clicks := f.sink.recorded()
	require.Len(t, clicks, 1)
	assert.Equal(t, int64(9), clicks[0].LinkID)
}

func TestRedirectUsecase_Resolve_ExpiredEntryIsInvalidated(t *testing.T) {
	f := newLinkFixture()
	past := time.Now().Add(-time.Minute)
	f.repo.seed(&domain.Link{OwnerID: "alice", ShortCode: "stale12", TargetURL: "https://example.com", ExpiresAt: &past})
	f.cache.entries["stale12"] = domain.CacheEntry{ShortCode: "stale12", LinkID: 1, TargetURL: "https://example.com", ExpiresAt: &past}

	_, err := f.redirect.Resolve(context.Background(), "stale12", testVisit)
	assert.ErrorIs(t, err, domain.ErrLinkExpired)
	assert.Equal(t, []string{"stale12"}, f.cache.invalidated)
	assert.False(t, f.cache.has("stale12"))
	assert.Equal(t, 1, f.repo.getCodeCalls)
	assert.Empty(t, f.sink.recorded())
}

func TestRedirectUsecase_Resolve_ExpiredEntryButExtendedLink(t *testing.T) {
	f := newLinkFixture()
	past := time.Now().Add(-time.Minute)
	f.repo.seed(&domain.Link{OwnerID: "alice", ShortCode: "renewed", TargetURL: "https://example.com"})
	f.cache.entries["renewed"] = domain.CacheEntry{ShortCode: "renewed", LinkID: 1, TargetURL: "https://example.com", ExpiresAt: &past}

	target, err := f.redirect.Resolve(context.Background(), "renewed", testVisit)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)

	entry, err := f.cache.Get(context.Background(), "renewed")
	require.NoError(t, err)
	assert.Nil(t, entry.ExpiresAt)
}

func TestRedirectUsecase_Resolve_ExpiredLink(t *testing.T) {
	f := newLinkFixture()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	f.redirect.now = func() time.Time { return now }
	// Expiration is inclusive: a link expiring exactly now is gone.
	f.repo.seed(&domain.Link{OwnerID: "alice", ShortCode: "expired", TargetURL: "https://example.com", ExpiresAt: &now})

	_, err := f.redirect.Resolve(context.Background(), "expired", testVisit)
	assert.ErrorIs(t, err, domain.ErrLinkExpired)
	assert.False(t, f.cache.has("expired"))
	assert.Empty(t, f.sink.recorded())
}

func TestRedirectUsecase_Resolve_NotFound(t *testing.T) {
	f := newLinkFixture()

	_, err := f.redirect.Resolve(context.Background(), "missing", testVisit)
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	assert.Empty(t, f.sink.recorded())
	assert.Zero(t, f.cache.setCalls)
}

func TestRedirectUsecase_Resolve_ImpossibleCodeShortCircuits(t *testing.T) {
	f := newLinkFixture()

	for _, code := range []string{"", "favicon.ico", "a/b", "ünïcode", "waytoolongtobeanyshortcode"} {
		_, err := f.redirect.Resolve(context.Background(), code, testVisit)
		assert.ErrorIs(t, err, domain.ErrLinkNotFound, code)
	}
	assert.Zero(t, f.cache.getCalls)
	assert.Zero(t, f.repo.getCodeCalls)
}

func TestRedirectUsecase_Resolve_CacheDownFallsBackToStore(t *testing.T) {
	f := newLinkFixture()
	f.cache.getErr = fmt.Errorf("%w: dial tcp: connection refused", domain.ErrCacheUnavailable)
	f.cache.setErr = f.cache.getErr
	f.repo.seed(&domain.Link{OwnerID: "alice", ShortCode: "nocache", TargetURL: "https://example.com"})

	target, err := f.redirect.Resolve(context.Background(), "nocache", testVisit)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", target)
	assert.Len(t, f.sink.recorded(), 1)
}

func TestRedirectUsecase_Resolve_StoreDown(t *testing.T) {
	f := newLinkFixture()
	f.repo.getErr = fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)

	_, err := f.redirect.Resolve(context.Background(), "anycode", testVisit)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, f.sink.recorded())
}

func TestRedirectUsecase_Resolve_ClickStoreDownDoesNotAffectRedirect(t *testing.T) {
	repo := newFakeLinkRepo()
	cache := newFakeLinkCache()
	opts := NewOptions(nil)
	opts.ClickWorkers = 1
	clickRepo := &fakeClickRepo{
		insertErr: fmt.Errorf("%w: click table unavailable", domain.ErrStoreUnavailable),
		block:     make(chan struct{}),
	}
	recorder := NewClickRecorder(clickRepo, fakeEnricher{}, opts, log.DefaultLogger)
	require.NoError(t, recorder.Start(context.Background()))

	gen := domain.NewCodeGenerator("", 0)
	rules := domain.NewCodeRules(0, 0, nil, nil)
	uc := NewRedirectUsecase(repo, cache, recorder, gen, rules, opts, log.DefaultLogger)
	repo.seed(&domain.Link{OwnerID: "alice", ShortCode: "hot1234", TargetURL: "https://example.com"})

	// The click store hangs and then fails; redirects must not wait for it.
	start := time.Now()
	for i := 0; i < 10; i++ {
		target, err := uc.Resolve(context.Background(), "hot1234", testVisit)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", target)
	}
	assert.Less(t, time.Since(start), time.Second)

	close(clickRepo.block)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, recorder.Stop(ctx))

	assert.Equal(t, 10, clickRepo.callCount(), "each click is attempted once")
	assert.Zero(t, clickRepo.insertedCount())
}
