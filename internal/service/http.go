package service

import (
	"context"
	nethttp "net/http"
	"strconv"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationLinkCreateLink   = "/shortlink.v1.Link/CreateLink"
	OperationLinkListLinks    = "/shortlink.v1.Link/ListLinks"
	OperationLinkGetLink      = "/shortlink.v1.Link/GetLink"
	OperationLinkUpdateLink   = "/shortlink.v1.Link/UpdateLink"
	OperationLinkDeleteLink   = "/shortlink.v1.Link/DeleteLink"
	OperationLinkListClicks   = "/shortlink.v1.Link/ListClicks"
	OperationLinkLinkStats    = "/shortlink.v1.Link/LinkStats"
	OperationLinkOwnerStats   = "/shortlink.v1.Link/OwnerStats"
	OperationRedirectInfo     = "/shortlink.v1.Redirect/Info"
	OperationRedirectHealth   = "/shortlink.v1.Redirect/Health"
	OperationRedirectRedirect = "/shortlink.v1.Redirect/Redirect"
)

// IsPublicOperation reports whether op is served without authentication.
func IsPublicOperation(op string) bool {
	switch op {
	case OperationRedirectInfo, OperationRedirectHealth, OperationRedirectRedirect:
		return true
	}
	return false
}

// RegisterLinkHTTPServer mounts the management API.
func RegisterLinkHTTPServer(s *http.Server, srv *LinkService) {
	r := s.Route("/")
	r.POST("/links", createLinkHandler(srv))
	r.GET("/links", listLinksHandler(srv))
	r.GET("/links/{id}", getLinkHandler(srv))
	r.PATCH("/links/{id}", updateLinkHandler(srv))
	r.DELETE("/links/{id}", deleteLinkHandler(srv))
	r.GET("/links/{id}/clicks", listClicksHandler(srv))
	r.GET("/links/{id}/stats", linkStatsHandler(srv))
	r.GET("/stats", ownerStatsHandler(srv))
}

// RegisterRedirectHTTPServer mounts the public routes and the catch-all
// redirect. It must be registered after every other route.
func RegisterRedirectHTTPServer(s *http.Server, srv *RedirectService, addrs *AddressResolver) {
	r := s.Route("/")
	r.GET("/", infoHandler(srv))
	r.GET("/health", healthHandler(srv))
	r.GET("/{code}", redirectHandler(srv, addrs))
}

func createLinkHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in CreateLinkRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationLinkCreateLink)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.CreateLink(ctx, req.(*CreateLinkRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusCreated, out.(*LinkReply))
	}
}

func listLinksHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		q := ctx.Query()
		in := ListLinksRequest{
			Page:     queryInt(q.Get("page")),
			PageSize: queryInt(q.Get("page_size")),
		}
		http.SetOperation(ctx, OperationLinkListLinks)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListLinks(ctx, req.(*ListLinksRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*ListLinksReply))
	}
}

func getLinkHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		http.SetOperation(ctx, OperationLinkGetLink)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.GetLink(ctx, req.(*LinkRequest))
		})
		out, err := h(ctx, &LinkRequest{ID: id})
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*LinkReply))
	}
}

func updateLinkHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in UpdateLinkRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		in.ID = id
		http.SetOperation(ctx, OperationLinkUpdateLink)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.UpdateLink(ctx, req.(*UpdateLinkRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*LinkReply))
	}
}

func deleteLinkHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		http.SetOperation(ctx, OperationLinkDeleteLink)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.DeleteLink(ctx, req.(*LinkRequest))
		})
		if _, err := h(ctx, &LinkRequest{ID: id}); err != nil {
			return err
		}
		ctx.Response().WriteHeader(nethttp.StatusNoContent)
		return nil
	}
}

func listClicksHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		q := ctx.Query()
		in := ListClicksRequest{ID: id, Cursor: q.Get("cursor"), Limit: queryInt(q.Get("limit"))}
		http.SetOperation(ctx, OperationLinkListClicks)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.ListClicks(ctx, req.(*ListClicksRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*ListClicksReply))
	}
}

func linkStatsHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		id, err := pathID(ctx)
		if err != nil {
			return err
		}
		http.SetOperation(ctx, OperationLinkLinkStats)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Stats(ctx, req.(*StatsRequest))
		})
		out, err := h(ctx, &StatsRequest{LinkID: id})
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*StatsReply))
	}
}

func ownerStatsHandler(srv *LinkService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationLinkOwnerStats)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Stats(ctx, req.(*StatsRequest))
		})
		out, err := h(ctx, &StatsRequest{})
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*StatsReply))
	}
}

func infoHandler(srv *RedirectService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationRedirectInfo)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Info(ctx, req.(*struct{}))
		})
		out, err := h(ctx, &struct{}{})
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*InfoReply))
	}
}

func healthHandler(srv *RedirectService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationRedirectHealth)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Health(ctx, req.(*struct{}))
		})
		out, err := h(ctx, &struct{}{})
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, out.(*HealthReply))
	}
}

func redirectHandler(srv *RedirectService, addrs *AddressResolver) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		r := ctx.Request()
		in := RedirectRequest{
			Code:          ctx.Vars().Get("code"),
			Referrer:      r.Referer(),
			UserAgent:     r.UserAgent(),
			ClientAddress: addrs.Resolve(r),
		}
		http.SetOperation(ctx, OperationRedirectRedirect)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Redirect(ctx, req.(*RedirectRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		// RedirectReply encodes as a 302 with a Location header.
		return ctx.Result(nethttp.StatusFound, out.(*RedirectReply))
	}
}

func pathID(ctx http.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Vars().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, kerrors.BadRequest(ReasonValidationFailed, "link id must be a positive integer")
	}
	return id, nil
}

func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
