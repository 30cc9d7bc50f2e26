package inbound

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/samber/lo"
	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/jwt"
	"github.com/watarui/wauth/internal/pkg/router"
	"github.com/watarui/wauth/internal/vault/entity"
	"github.com/watarui/wauth/internal/vault/usecase"
)

//go:embed schema.graphql
var schemaSDL string

// RegisterGraphQLEndpoint mounts the GraphQL API at POST /graphql. Reading
// needs the read scope; mutations additionally check the write scope.
func RegisterGraphQLEndpoint(r *router.Router, uc uc) {
	r.POSTRaw("/graphql", NewGraphQLHandler(uc), router.RequireScope(jwt.ScopeRead))
}

// NewGraphQLHandler returns the relay-style handler for the vault schema.
func NewGraphQLHandler(uc uc) *relay.Handler {
	schema := graphql.MustParseSchema(schemaSDL, &resolver{uc: uc})
	return &relay.Handler{Schema: schema}
}

// gqlError exposes the goerror message and code to GraphQL clients.
type gqlError struct {
	err  error
	msg  string
	code string
	data map[string]string
}

func (e *gqlError) Error() string { return e.msg }

func (e *gqlError) Unwrap() error { return e.err }

func (e *gqlError) Extensions() map[string]any {
	ext := map[string]any{"code": e.code}
	if len(e.data) > 0 {
		ext["fields"] = e.data
	}
	return ext
}

func toGraphQLError(ctx context.Context, op string, err error) error {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		slog.ErrorContext(ctx, "graphql resolver failed", "operation", op, "error", err)
		return &gqlError{err: err, msg: "Internal server error", code: goerror.CodeInternal.String()}
	}

	gq := &gqlError{err: err, msg: gerr.Msg(), code: gerr.Code().String()}
	var fielder interface{ Values() map[string]string }
	if errors.As(err, &fielder) {
		gq.data = fielder.Values()
	}
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		gq.msg = verr.Message
	}
	return gq
}

var errInsufficientScope = &gqlError{msg: "Insufficient scope", code: goerror.CodeForbidden.String()}

func requireWrite(ctx context.Context) error {
	if clm := jwt.GetAuth(ctx); clm != nil && !clm.HasScope(jwt.ScopeWrite) {
		return errInsufficientScope
	}
	return nil
}

type resolver struct {
	uc uc
}

type siteNameArgs struct {
	SiteName string
}

type addSiteArgs struct {
	SiteName string
	Secret   string
}

func (r *resolver) ListSites(ctx context.Context) ([]*siteResolver, error) {
	out, err := r.uc.ListSites(ctx, usecase.ListSitesInput{})
	if err != nil {
		return nil, toGraphQLError(ctx, "listSites", err)
	}

	return lo.Map(out.Sites, func(name string, _ int) *siteResolver { return &siteResolver{name: name} }), nil
}

func (r *resolver) GetTotpCode(ctx context.Context, args siteNameArgs) (*codeResolver, error) {
	code, err := r.uc.GetCode(ctx, usecase.GetCodeInput{SiteName: args.SiteName})
	if err != nil {
		return nil, toGraphQLError(ctx, "getTotpCode", err)
	}

	return &codeResolver{
		code:      code.Code,
		remaining: int32(code.RemainingSeconds),
		siteName:  code.SiteName,
	}, nil
}

func (r *resolver) AddSite(ctx context.Context, args addSiteArgs) (*siteResolver, error) {
	if err := requireWrite(ctx); err != nil {
		return nil, err
	}

	if err := r.uc.AddSite(ctx, usecase.AddSiteInput{SiteName: args.SiteName, Secret: args.Secret}); err != nil {
		return nil, toGraphQLError(ctx, "addSite", err)
	}

	return &siteResolver{name: args.SiteName}, nil
}

func (r *resolver) DeleteSite(ctx context.Context, args siteNameArgs) (*siteResolver, error) {
	if err := requireWrite(ctx); err != nil {
		return nil, err
	}

	if err := r.uc.DeleteSite(ctx, usecase.DeleteSiteInput{SiteName: args.SiteName}); err != nil {
		return nil, toGraphQLError(ctx, "deleteSite", err)
	}

	return &siteResolver{name: args.SiteName}, nil
}

func (r *resolver) GenerateSecret(ctx context.Context, args siteNameArgs) (*generatedResolver, error) {
	if err := requireWrite(ctx); err != nil {
		return nil, err
	}

	out, err := r.uc.GenerateSecret(ctx, usecase.GenerateSecretInput{SiteName: args.SiteName})
	if err != nil {
		return nil, toGraphQLError(ctx, "generateSecret", err)
	}

	return &generatedResolver{siteName: out.SiteName, secret: out.Secret, uri: out.URI}, nil
}

type siteResolver struct {
	name string
}

func (s *siteResolver) Name() string { return s.name }

type codeResolver struct {
	code      string
	remaining int32
	siteName  string
}

func (c *codeResolver) Code() string            { return c.code }
func (c *codeResolver) RemainingSeconds() int32 { return c.remaining }
func (c *codeResolver) SiteName() string        { return c.siteName }

type generatedResolver struct {
	siteName, secret, uri string
}

func (g *generatedResolver) SiteName() string { return g.siteName }
func (g *generatedResolver) Secret() string   { return g.secret }
func (g *generatedResolver) URI() string      { return g.uri }
