package inbound

import (
	"context"

	"github.com/watarui/wauth/internal/pkg/idempotency"
	"github.com/watarui/wauth/internal/pkg/jwt"
	"github.com/watarui/wauth/internal/pkg/router"
	"github.com/watarui/wauth/internal/vault/entity"
	"github.com/watarui/wauth/internal/vault/usecase"
)

type uc interface {
	AddSite(ctx context.Context, in usecase.AddSiteInput) error
	DeleteSite(ctx context.Context, in usecase.DeleteSiteInput) error
	ListSites(ctx context.Context, in usecase.ListSitesInput) (*usecase.ListSitesOutput, error)
	GetCode(ctx context.Context, in usecase.GetCodeInput) (*entity.Code, error)
	GenerateSecret(ctx context.Context, in usecase.GenerateSecretInput) (*entity.GeneratedSecret, error)
	CheckHealth(ctx context.Context) error
}

// RegisterHTTPEndpoint mounts the REST routes. idem may be nil, in which
// case the Idempotency-Key header is ignored.
func RegisterHTTPEndpoint(r *router.Router, uc uc, idem idempotency.Idempotency) {
	end := &HTTPEndpoint{uc: uc, idem: idem}

	read := router.RequireScope(jwt.ScopeRead)
	write := router.RequireScope(jwt.ScopeWrite)

	r.GET("/health", end.Health)

	r.GET("/api/v1/sites", end.ListSites, read)
	r.GET("/api/v1/sites/:site_name/code", end.GetCode, read)
	r.POST("/api/v1/sites", end.AddSite, write)
	r.POST("/api/v1/sites/:site_name/generate", end.GenerateSecret, write)
	r.DELETE("/api/v1/sites/:site_name", end.DeleteSite, write)
}
