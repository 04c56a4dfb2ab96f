package domain

import (
	"context"
	"time"
)

// LinkRepository is the durable source of truth for links.
// Implementations live in the data layer.
type LinkRepository interface {
	// Create inserts the link and sets its ID. Returns ErrCodeConflict when
	// the short code is taken.
	Create(ctx context.Context, link *Link) error

	// GetByCode returns the link for code, expired or not.
	// Returns ErrLinkNotFound if no such code exists.
	GetByCode(ctx context.Context, code string) (*Link, error)

	// GetForOwner returns the link with id if owner owns it.
	// Returns ErrLinkNotFound or ErrForbidden.
	GetForOwner(ctx context.Context, id int64, owner string) (*Link, error)

	// ListByOwner returns one page of the owner's links, newest first, and
	// the owner's total link count.
	ListByOwner(ctx context.Context, owner string, page, pageSize int) ([]*Link, int, error)

	// Update applies patch in one transaction and returns the updated link.
	Update(ctx context.Context, id int64, owner string, patch *LinkPatch) (*Link, error)

	// Delete removes the link and its clicks and returns what was deleted.
	Delete(ctx context.Context, id int64, owner string) (*Link, error)
}

// ClickRepository stores clicks and answers aggregate queries over them.
type ClickRepository interface {
	// Insert stores one click as a single atomic row.
	Insert(ctx context.Context, click *Click) error

	// CountByLink returns the total clicks of a link.
	CountByLink(ctx context.Context, linkID int64) (int64, error)

	// ListByLink returns clicks older than cursor, newest first.
	ListByLink(ctx context.Context, linkID int64, cursor string, limit int) (*ClickPage, error)

	// Aggregate computes statistics for the query scope.
	Aggregate(ctx context.Context, q StatsQuery) (*ClickStats, error)
}

// LinkCache is the volatile redirect lookup. It is a disposable projection
// of LinkRepository and is never authoritative.
type LinkCache interface {
	// Get returns ErrCacheMiss when absent and wraps ErrCacheUnavailable when
	// the backing store cannot be reached.
	Get(ctx context.Context, code string) (*CacheEntry, error)
	Set(ctx context.Context, entry *CacheEntry, ttl time.Duration) error
	Invalidate(ctx context.Context, code string) error
}

// StatsCache holds recently computed statistics.
type StatsCache interface {
	Get(ctx context.Context, key string) (*ClickStats, error)
	Set(ctx context.Context, key string, stats *ClickStats, ttl time.Duration) error
}
