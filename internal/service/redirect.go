package service

import (
	"context"

	"go-shortlink/internal/biz"
)

// RedirectService serves the unauthenticated routes.
type RedirectService struct {
	uc *biz.RedirectUsecase
}

func NewRedirectService(uc *biz.RedirectUsecase) *RedirectService {
	return &RedirectService{uc: uc}
}

func (s *RedirectService) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectReply, error) {
	target, err := s.uc.Resolve(ctx, req.Code, biz.Visit{
		Referrer:      req.Referrer,
		UserAgent:     req.UserAgent,
		ClientAddress: req.ClientAddress,
	})
	if err != nil {
		return nil, toError(err)
	}
	return &RedirectReply{Location: target}, nil
}

func (s *RedirectService) Info(context.Context, *struct{}) (*InfoReply, error) {
	return &InfoReply{Message: "URL Shortener API", Health: "/health"}, nil
}

func (s *RedirectService) Health(context.Context, *struct{}) (*HealthReply, error) {
	return &HealthReply{Status: "ok"}, nil
}
