package biz

import (
	"context"
	"errors"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// Visit is the request data captured for a click.
type Visit struct {
	Referrer      string
	UserAgent     string
	ClientAddress string
}

// RedirectUsecase resolves short codes on the hot path. The cache is only
// ever filled from the store here and in LinkUsecase.
type RedirectUsecase struct {
	links   domain.LinkRepository
	cache   domain.LinkCache
	clicks  ClickSink
	rules   *domain.CodeRules
	codeLen int
	opts    *Options
	log     *log.Helper
	now     func() time.Time
}

func NewRedirectUsecase(
	links domain.LinkRepository,
	cache domain.LinkCache,
	clicks ClickSink,
	gen *domain.CodeGenerator,
	rules *domain.CodeRules,
	opts *Options,
	logger log.Logger,
) *RedirectUsecase {
	return &RedirectUsecase{
		links:   links,
		cache:   cache,
		clicks:  clicks,
		rules:   rules,
		codeLen: gen.Length(),
		opts:    opts,
		log:     log.NewHelper(logger),
		now:     time.Now,
	}
}

// Resolve returns the target URL for code and records the click in the
// background. Unknown and expired codes return ErrLinkNotFound and
// ErrLinkExpired and are never counted.
func (uc *RedirectUsecase) Resolve(ctx context.Context, code string, visit Visit) (string, error) {
	if !uc.rules.MaybeCode(code, uc.codeLen) {
		return "", domain.ErrLinkNotFound
	}
	now := uc.now()

	entry, err := uc.cache.Get(ctx, code)
	switch {
	case err == nil && !entry.IsExpired(now):
		uc.record(entry.LinkID, visit, now)
		return entry.TargetURL, nil
	case err == nil:
		// The copied expiration has passed; the store decides.
		if err := uc.cache.Invalidate(ctx, code); err != nil {
			uc.log.WithContext(ctx).Warnf("failed to invalidate expired cache entry %s: %v", code, err)
		}
	case !errors.Is(err, domain.ErrCacheMiss):
		uc.log.WithContext(ctx).Warnf("cache lookup for %s failed, falling back to store: %v", code, err)
	}

	link, err := uc.links.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if link.IsExpired(now) {
		return "", domain.ErrLinkExpired
	}

	if err := uc.cache.Set(ctx, link.CacheEntry(), uc.opts.LinkTTL); err != nil {
		uc.log.WithContext(ctx).Warnf("failed to cache %s: %v", code, err)
	}

	uc.record(link.ID, visit, now)
	return link.TargetURL, nil
}

func (uc *RedirectUsecase) record(linkID int64, visit Visit, at time.Time) {
	uc.clicks.Record(&domain.Click{
		LinkID:        linkID,
		ClickedAt:     at.UTC(),
		Referrer:      visit.Referrer,
		UserAgent:     visit.UserAgent,
		ClientAddress: visit.ClientAddress,
	})
}
