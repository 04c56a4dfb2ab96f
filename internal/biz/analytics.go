package biz

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	DefaultClickPageSize = 50
	MaxClickPageSize     = 100
)

// LinkDetail is a link together with its click count.
type LinkDetail struct {
	Link        *domain.Link
	TotalClicks int64
}

// AnalyticsUsecase answers owner-scoped questions about recorded clicks.
type AnalyticsUsecase struct {
	links  domain.LinkRepository
	clicks domain.ClickRepository
	cache  domain.StatsCache
	opts   *Options
	log    *log.Helper
	now    func() time.Time
}

func NewAnalyticsUsecase(
	links domain.LinkRepository,
	clicks domain.ClickRepository,
	cache domain.StatsCache,
	opts *Options,
	logger log.Logger,
) *AnalyticsUsecase {
	return &AnalyticsUsecase{
		links:  links,
		clicks: clicks,
		cache:  cache,
		opts:   opts,
		log:    log.NewHelper(logger),
		now:    time.Now,
	}
}

func statsKey(owner string, linkID int64) string {
	if linkID == 0 {
		return owner + ":all"
	}
	return owner + ":" + strconv.FormatInt(linkID, 10)
}

// Stats aggregates the clicks of one link, or of all the owner's links when
// linkID is zero. Results are cached for StatsTTL.
func (uc *AnalyticsUsecase) Stats(ctx context.Context, owner string, linkID int64) (*domain.ClickStats, error) {
	if linkID != 0 {
		if _, err := uc.links.GetForOwner(ctx, linkID, owner); err != nil {
			return nil, err
		}
	}

	key := statsKey(owner, linkID)
	cached, err := uc.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		uc.log.WithContext(ctx).Warnf("stats cache lookup for %s failed: %v", key, err)
	}

	stats, err := uc.clicks.Aggregate(ctx, domain.StatsQuery{
		OwnerID:      owner,
		LinkID:       linkID,
		Now:          uc.now().UTC(),
		Days:         statsDays,
		Weeks:        statsWeeks,
		Months:       statsMonths,
		TopReferrers: statsTopReferrers,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, key, stats, uc.opts.StatsTTL); err != nil {
		uc.log.WithContext(ctx).Warnf("failed to cache stats %s: %v", key, err)
	}
	return stats, nil
}

// ListClicks pages through a link's clicks, newest first.
func (uc *AnalyticsUsecase) ListClicks(ctx context.Context, owner string, linkID int64, cursor string, limit int) (*domain.ClickPage, error) {
	if _, err := uc.links.GetForOwner(ctx, linkID, owner); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = DefaultClickPageSize
	}
	if limit > MaxClickPageSize {
		limit = MaxClickPageSize
	}
	return uc.clicks.ListByLink(ctx, linkID, cursor, limit)
}

// LinkDetail returns one of the owner's links with its total click count.
func (uc *AnalyticsUsecase) LinkDetail(ctx context.Context, owner string, id int64) (*LinkDetail, error) {
	link, err := uc.links.GetForOwner(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	total, err := uc.clicks.CountByLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	return &LinkDetail{Link: link, TotalClicks: total}, nil
}
