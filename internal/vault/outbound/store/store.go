// Package store implements the vault secret store on DynamoDB, Redis,
// Postgres, S3 and Google Cloud Storage. Every driver persists the same
// {site_name, secret} record and maps backend errors onto goerror.ErrNotFound
// and goerror.ErrConflict.
package store

import (
	"context"
	"errors"
	"io"

	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/vault/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store is the full driver surface: the usecase port plus lifecycle.
type Store interface {
	io.Closer

	Put(ctx context.Context, site entity.Site) error
	Create(ctx context.Context, site entity.Site) error
	Delete(ctx context.Context, siteName string) (bool, error)
	Get(ctx context.Context, siteName string) (*entity.Site, error)
	ListSiteNames(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, siteName string) (bool, error)

	// Ping checks that the backend is reachable and the table/bucket exists.
	Ping(ctx context.Context) error
}

type record struct {
	SiteName string `json:"site_name"`
	Secret   string `json:"secret"`
}

func (r record) site() *entity.Site {
	return &entity.Site{Name: r.SiteName, Secret: r.Secret}
}

// tracing is embedded by every driver.
type tracing struct {
	ins    instrument.Instrumentation
	driver string
}

func newTracing(ins instrument.Instrumentation, driver string) tracing {
	if ins == nil {
		ins = instrument.NewNoop()
	}
	return tracing{ins: ins, driver: driver}
}

func (t tracing) startSpan(ctx context.Context, name, siteName string) (context.Context, trace.Span) {
	ctx, span := t.ins.Tracer("vault.outbound.store").Start(ctx, name)
	span.SetAttributes(attribute.String("store.driver", t.driver))
	if siteName != "" {
		span.SetAttributes(attribute.String("site_name", siteName))
	}
	return ctx, span
}

func (t tracing) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
