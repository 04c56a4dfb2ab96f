package service

import (
	"context"

	"go-shortlink/internal/biz"
	"go-shortlink/internal/domain"

	"github.com/samber/lo"
)

// LinkService is the owner-scoped management API.
type LinkService struct {
	links     *biz.LinkUsecase
	analytics *biz.AnalyticsUsecase
}

func NewLinkService(links *biz.LinkUsecase, analytics *biz.AnalyticsUsecase) *LinkService {
	return &LinkService{links: links, analytics: analytics}
}

func (s *LinkService) CreateLink(ctx context.Context, req *CreateLinkRequest) (*LinkReply, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.links.Create(ctx, &domain.NewLink{
		OwnerID:    owner,
		TargetURL:  req.TargetURL,
		CustomCode: req.CustomCode,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		return nil, toError(err)
	}
	return s.toLinkReply(link), nil
}

func (s *LinkService) ListLinks(ctx context.Context, req *ListLinksRequest) (*ListLinksReply, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, pageSize := biz.NormalizePage(req.Page, req.PageSize)
	links, total, err := s.links.List(ctx, owner, page, pageSize)
	if err != nil {
		return nil, toError(err)
	}

	return &ListLinksReply{
		Links: lo.Map(links, func(l *domain.Link, _ int) *LinkReply {
			return s.toLinkReply(l)
		}),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *LinkService) GetLink(ctx context.Context, req *LinkRequest) (*LinkReply, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := s.analytics.LinkDetail(ctx, owner, req.ID)
	if err != nil {
		return nil, toError(err)
	}
	reply := s.toLinkReply(detail.Link)
	reply.TotalClicks = lo.ToPtr(detail.TotalClicks)
	return reply, nil
}

func (s *LinkService) UpdateLink(ctx context.Context, req *UpdateLinkRequest) (*LinkReply, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.links.Update(ctx, owner, req.ID, &domain.LinkPatch{
		TargetURL:       req.TargetURL,
		ExpiresAt:       req.ExpiresAt,
		ClearExpiration: req.ClearExpiration,
	})
	if err != nil {
		return nil, toError(err)
	}
	return s.toLinkReply(link), nil
}

func (s *LinkService) DeleteLink(ctx context.Context, req *LinkRequest) (*DeleteLinkReply, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.links.Delete(ctx, owner, req.ID); err != nil {
		return nil, toError(err)
	}
	return &DeleteLinkReply{}, nil
}

func (s *LinkService) ListClicks(ctx context.Context, req *ListClicksRequest) (*ListClicksReply, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.analytics.ListClicks(ctx, owner, req.ID, req.Cursor, req.Limit)
	if err != nil {
		return nil, toError(err)
	}

	return &ListClicksReply{
		Clicks:     lo.Map(page.Clicks, func(c *domain.Click, _ int) *ClickReply { return toClickReply(c) }),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}, nil
}

// Stats returns click statistics for one link or, with LinkID zero, for all
// of the caller's links.
func (s *LinkService) Stats(ctx context.Context, req *StatsRequest) (*StatsReply, error) {
	owner, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.analytics.Stats(ctx, owner, req.LinkID)
	if err != nil {
		return nil, toError(err)
	}
	return stats, nil
}

func (s *LinkService) toLinkReply(l *domain.Link) *LinkReply {
	return &LinkReply{
		ID:         l.ID,
		ShortCode:  l.ShortCode,
		ShortURL:   s.links.ShortURL(l.ShortCode),
		TargetURL:  l.TargetURL,
		CustomCode: l.CustomCode,
		ExpiresAt:  l.ExpiresAt,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toClickReply(c *domain.Click) *ClickReply {
	return &ClickReply{
		ID:            c.ID,
		ClickedAt:     c.ClickedAt,
		Referrer:      c.Referrer,
		UserAgent:     c.UserAgent,
		ClientAddress: c.ClientAddress,
		DeviceType:    c.DeviceType,
		TrafficSource: c.TrafficSource,
		CountryCode:   c.CountryCode,
	}
}
