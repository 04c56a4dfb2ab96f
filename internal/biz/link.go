package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-shortlink/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// LinkUsecase owns the link lifecycle and keeps the redirect cache
// consistent with every durable write.
type LinkUsecase struct {
	repo  domain.LinkRepository
	cache domain.LinkCache
	gen   *domain.CodeGenerator
	rules *domain.CodeRules
	opts  *Options
	log   *log.Helper
	now   func() time.Time
}

func NewLinkUsecase(
	repo domain.LinkRepository,
	cache domain.LinkCache,
	gen *domain.CodeGenerator,
	rules *domain.CodeRules,
	opts *Options,
	logger log.Logger,
) *LinkUsecase {
	return &LinkUsecase{
		repo:  repo,
		cache: cache,
		gen:   gen,
		rules: rules,
		opts:  opts,
		log:   log.NewHelper(logger),
		now:   time.Now,
	}
}

// ShortURL is the public address of a code.
func (uc *LinkUsecase) ShortURL(code string) string {
	return uc.opts.BaseURL + "/" + code
}

// Create stores a new link under a custom or generated code and warms the
// redirect cache.
func (uc *LinkUsecase) Create(ctx context.Context, in *domain.NewLink) (*domain.Link, error) {
	now := uc.now().UTC()
	if in.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	if err := in.Validate(now); err != nil {
		return nil, err
	}

	link := &domain.Link{
		OwnerID:   in.OwnerID,
		TargetURL: in.TargetURL,
		CreatedAt: now,
	}
	if in.ExpiresAt != nil {
		exp := in.ExpiresAt.UTC()
		link.ExpiresAt = &exp
	}

	var err error
	if in.CustomCode != "" {
		err = uc.createCustom(ctx, link, in.CustomCode)
	} else {
		err = uc.createGenerated(ctx, link)
	}
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Infof("created link %d %s -> %s", link.ID, link.ShortCode, link.TargetURL)

	// The first redirect after creation should be a hit. A failed warm only
	// costs that redirect a store read.
	if err := uc.cache.Set(ctx, link.CacheEntry(), uc.opts.LinkTTL); err != nil {
		uc.log.WithContext(ctx).Warnf("failed to warm cache for %s: %v", link.ShortCode, err)
	}
	return link, nil
}

func (uc *LinkUsecase) createCustom(ctx context.Context, link *domain.Link, code string) error {
	if err := uc.rules.ValidateCustom(code); err != nil {
		return err
	}
	link.ShortCode = code
	link.CustomCode = true
	return uc.repo.Create(ctx, link)
}

func (uc *LinkUsecase) createGenerated(ctx context.Context, link *domain.Link) error {
	for attempt := 1; attempt <= uc.opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		code, err := uc.gen.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate short code: %w", err)
		}
		if uc.rules.CheckAllowed(code) != nil {
			continue
		}

		link.ShortCode = code
		err = uc.repo.Create(ctx, link)
		if errors.Is(err, domain.ErrCodeConflict) {
			uc.log.WithContext(ctx).Warnf("short code collision on attempt %d/%d", attempt, uc.opts.MaxAttempts)
			continue
		}
		return err
	}

	uc.log.WithContext(ctx).Errorf("short code space exhausted after %d attempts", uc.opts.MaxAttempts)
	return domain.ErrCodeSpaceExhausted
}

// Get returns one of the owner's links.
func (uc *LinkUsecase) Get(ctx context.Context, owner string, id int64) (*domain.Link, error) {
	return uc.repo.GetForOwner(ctx, id, owner)
}

// List returns one page of the owner's links, newest first, and the total.
func (uc *LinkUsecase) List(ctx context.Context, owner string, page, pageSize int) ([]*domain.Link, int, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return uc.repo.ListByOwner(ctx, owner, page, pageSize)
}

// Update applies patch durably, then drops the cached redirect so the next
// lookup reads the new target from the store.
func (uc *LinkUsecase) Update(ctx context.Context, owner string, id int64, patch *domain.LinkPatch) (*domain.Link, error) {
	if err := patch.Validate(uc.now()); err != nil {
		return nil, err
	}

	link, err := uc.repo.Update(ctx, id, owner, patch)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, link.ShortCode, "updated")
	return link, nil
}

// Delete removes the link and its clicks, then drops the cached redirect.
// A failed invalidation does not undo the delete.
func (uc *LinkUsecase) Delete(ctx context.Context, owner string, id int64) error {
	link, err := uc.repo.Delete(ctx, id, owner)
	if err != nil {
		return err
	}

	uc.invalidate(ctx, link.ShortCode, "deleted")
	return nil
}

// invalidate drops the cached redirect now and again after InvalidateDelay.
// A redirect miss that read the row before the write committed can cache it
// after the first pass; the second pass removes that entry. Only a miss whose
// store read and cache fill are further apart than the delay can still leave
// a stale target, for at most LinkTTL.
func (uc *LinkUsecase) invalidate(ctx context.Context, code, action string) {
	if err := uc.cache.Invalidate(ctx, code); err != nil {
		uc.log.WithContext(ctx).Errorf("failed to invalidate cache for %s link %s: %v", action, code, err)
	}
	if uc.opts.InvalidateDelay <= 0 {
		return
	}
	time.AfterFunc(uc.opts.InvalidateDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		if err := uc.cache.Invalidate(ctx, code); err != nil {
			uc.log.Warnf("delayed invalidation for %s link %s failed: %v", action, code, err)
		}
	})
}
