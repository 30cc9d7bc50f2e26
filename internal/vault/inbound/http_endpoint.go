package inbound

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/idempotency"
	"github.com/watarui/wauth/internal/pkg/router"
	"github.com/watarui/wauth/internal/vault/entity"
	"github.com/watarui/wauth/internal/vault/usecase"
)

// HTTPEndpoint exposes the vault over JSON REST.
type HTTPEndpoint struct {
	uc   uc
	idem idempotency.Idempotency
}

// HeaderIdempotencyKey makes a write request run at most once per key.
const HeaderIdempotencyKey = "Idempotency-Key"

// once runs fn under the request's idempotency key, if any.
func (h *HTTPEndpoint) once(r *router.Request, fn func(context.Context) error) error {
	key := r.Header.Get(HeaderIdempotencyKey)
	if h.idem == nil || key == "" {
		return fn(r.Context())
	}

	err := h.idem.Exec(r.Context(), r.Method+" "+r.URL.Path+" "+key, fn)
	switch {
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		return goerror.NewBusiness("Request with this idempotency key is still in progress", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyFailed):
		return goerror.NewBusiness("Request with this idempotency key was already processed", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrInvalidState):
		return goerror.NewServer(err)
	}

	if err == nil {
		return nil
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return gerr
	}

	return goerror.NewServer(err)
}

// Health pings the secret store.
func (h *HTTPEndpoint) Health(r *router.Request) (any, error) {
	if err := h.uc.CheckHealth(r.Context()); err != nil {
		return nil, err
	}

	return HealthResponse{Status: "ok"}, nil
}

// ListSites returns the sorted site names. Query "page" and "size" paginate;
// without "size" every site is returned.
func (h *HTTPEndpoint) ListSites(r *router.Request) (any, error) {
	page, err := r.GetQueryInt("page")
	if err != nil {
		return nil, err
	}
	size, err := r.GetQueryInt("size")
	if err != nil {
		return nil, err
	}

	out, err := h.uc.ListSites(r.Context(), usecase.ListSitesInput{Page: page, Size: size})
	if err != nil {
		return nil, err
	}

	return ListSitesResponse{
		Sites: lo.Map(out.Sites, func(name string, _ int) SiteResponse { return SiteResponse{Name: name} }),
		page:  out.Page,
		size:  out.Size,
		total: out.Total,
	}, nil
}

func (h *HTTPEndpoint) GetCode(r *router.Request) (any, error) {
	code, err := h.uc.GetCode(r.Context(), usecase.GetCodeInput{SiteName: r.GetParam("site_name")})
	if err != nil {
		return nil, err
	}

	return CodeResponse{
		SiteName:         code.SiteName,
		Code:             code.Code,
		RemainingSeconds: code.RemainingSeconds,
		GeneratedAt:      code.GeneratedAt,
	}, nil
}

func (h *HTTPEndpoint) AddSite(r *router.Request) (any, error) {
	var req AddSiteRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	err := h.once(r, func(ctx context.Context) error {
		return h.uc.AddSite(ctx, usecase.AddSiteInput{
			SiteName: req.SiteName,
			Secret:   req.Secret,
		})
	})
	if err != nil {
		return nil, err
	}

	return AddSiteResponse{Name: req.SiteName}, nil
}

// GenerateSecret creates and stores a random secret for the site in the path.
func (h *HTTPEndpoint) GenerateSecret(r *router.Request) (any, error) {
	var out *entity.GeneratedSecret
	err := h.once(r, func(ctx context.Context) error {
		var err error
		out, err = h.uc.GenerateSecret(ctx, usecase.GenerateSecretInput{SiteName: r.GetParam("site_name")})
		return err
	})
	if err != nil {
		return nil, err
	}

	return GenerateSecretResponse{SiteName: out.SiteName, Secret: out.Secret, URI: out.URI}, nil
}

// DeleteSite answers 204 whether or not the site existed.
func (h *HTTPEndpoint) DeleteSite(r *router.Request) (any, error) {
	if err := h.uc.DeleteSite(r.Context(), usecase.DeleteSiteInput{SiteName: r.GetParam("site_name")}); err != nil {
		return nil, err
	}

	return DeleteSiteResponse{}, nil
}
