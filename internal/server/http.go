package server

import (
	"context"

	"go-shortlink/internal/conf"
	"go-shortlink/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/middleware/selector"
	"github.com/go-kratos/kratos/v2/transport/http"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/handlers"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Server,
	ac *conf.Auth,
	links *service.LinkService,
	redirect *service.RedirectService,
	addrs *service.AddressResolver,
	limiter *RateLimiter,
	logger log.Logger,
) *http.Server {
	var opts = []http.ServerOption{
		http.Filter(corsFilter(c)),
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			selector.Server(
				limiter.Middleware(),
				authMiddleware(ac),
			).Match(requiresOwner).Build(),
		),
	}
	if c != nil && c.HTTP != nil {
		if c.HTTP.Network != "" {
			opts = append(opts, http.Network(c.HTTP.Network))
		}
		if c.HTTP.Addr != "" {
			opts = append(opts, http.Address(c.HTTP.Addr))
		}
		if c.HTTP.Timeout.AsDuration() > 0 {
			opts = append(opts, http.Timeout(c.HTTP.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)
	service.RegisterLinkHTTPServer(srv, links)
	// The redirect route captures every single segment path, so it goes last.
	service.RegisterRedirectHTTPServer(srv, redirect, addrs)
	return srv
}

// corsFilter answers browser preflights for the management API. Origins
// default to any.
func corsFilter(c *conf.Server) http.FilterFunc {
	origins := []string{"*"}
	if c != nil && c.HTTP != nil && len(c.HTTP.CORSOrigins) > 0 {
		origins = c.HTTP.CORSOrigins
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.ExposedHeaders([]string{"Location", headerLimit, headerRemaining, headerReset}),
	)
}

// authMiddleware verifies HS256 bearer tokens. The subject claim is the
// owner of every link the caller manages.
func authMiddleware(ac *conf.Auth) middleware.Middleware {
	var secret []byte
	if ac != nil {
		secret = []byte(ac.JWTSecret)
	}
	return jwt.Server(
		func(token *jwtv5.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithSigningMethod(jwtv5.SigningMethodHS256),
		jwt.WithClaims(func() jwtv5.Claims {
			return &jwtv5.RegisteredClaims{}
		}),
	)
}

func requiresOwner(_ context.Context, operation string) bool {
	return !service.IsPublicOperation(operation)
}
