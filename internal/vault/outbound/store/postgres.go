package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/vault/entity"
)

// DefaultPostgresTable is used when no table is configured.
const DefaultPostgresTable = "wauth_sites"

// Postgres stores sites in a single table keyed by site_name.
type Postgres struct {
	tracing
	conn  *pgxpool.Pool
	table string
}

// NewPostgres wraps conn. The table name is quoted as an identifier.
func NewPostgres(conn *pgxpool.Pool, table string, ins instrument.Instrumentation) *Postgres {
	if table == "" {
		table = DefaultPostgresTable
	}
	return &Postgres{
		tracing: newTracing(ins, "postgres"),
		conn:    conn,
		table:   pgx.Identifier{table}.Sanitize(),
	}
}

// - 23505 unique violation → goerror.ErrConflict
func (p *Postgres) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

// Migrate creates the table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.conn.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	site_name  TEXT PRIMARY KEY,
	secret     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, p.table))
	return err
}

func (p *Postgres) Put(ctx context.Context, site entity.Site) (err error) {
	ctx, span := p.startSpan(ctx, "Put", site.Name)
	defer func() { p.endSpan(span, err) }()

	_, err = p.conn.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (site_name, secret) VALUES ($1, $2)
ON CONFLICT (site_name) DO UPDATE SET secret = EXCLUDED.secret, updated_at = now()`, p.table),
		site.Name, site.Secret)
	err = p.mapError(err)
	return err
}

func (p *Postgres) Create(ctx context.Context, site entity.Site) (err error) {
	ctx, span := p.startSpan(ctx, "Create", site.Name)
	defer func() { p.endSpan(span, err) }()

	tag, err := p.conn.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (site_name, secret) VALUES ($1, $2)
ON CONFLICT (site_name) DO NOTHING`, p.table), site.Name, site.Secret)
	if err != nil {
		err = p.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrConflict
	}
	return err
}

func (p *Postgres) Delete(ctx context.Context, siteName string) (_ bool, err error) {
	ctx, span := p.startSpan(ctx, "Delete", siteName)
	defer func() { p.endSpan(span, err) }()

	tag, err := p.conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE site_name = $1`, p.table), siteName)
	if err != nil {
		err = p.mapError(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) Get(ctx context.Context, siteName string) (_ *entity.Site, err error) {
	ctx, span := p.startSpan(ctx, "Get", siteName)
	defer func() { p.endSpan(span, err) }()

	var rec record
	err = p.conn.QueryRow(ctx, fmt.Sprintf(`SELECT site_name, secret FROM %s WHERE site_name = $1`, p.table), siteName).
		Scan(&rec.SiteName, &rec.Secret)
	if err != nil {
		err = p.mapError(err)
		return nil, err
	}
	return rec.site(), nil
}

func (p *Postgres) ListSiteNames(ctx context.Context) (_ []string, err error) {
	ctx, span := p.startSpan(ctx, "ListSiteNames", "")
	defer func() { p.endSpan(span, err) }()

	rows, err := p.conn.Query(ctx, fmt.Sprintf(`SELECT site_name FROM %s ORDER BY site_name`, p.table))
	if err != nil {
		err = p.mapError(err)
		return nil, err
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Postgres) Exists(ctx context.Context, siteName string) (_ bool, err error) {
	ctx, span := p.startSpan(ctx, "Exists", siteName)
	defer func() { p.endSpan(span, err) }()

	var ok bool
	err = p.conn.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE site_name = $1)`, p.table), siteName).
		Scan(&ok)
	return ok, err
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.conn.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.conn.Close()
	return nil
}
