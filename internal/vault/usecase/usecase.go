package usecase

import (
	"context"
	"log/slog"

	"github.com/watarui/wauth/internal/pkg/clock"
	"github.com/watarui/wauth/internal/pkg/config"
	"github.com/watarui/wauth/internal/pkg/goroutine"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/otp"
	"github.com/watarui/wauth/internal/pkg/uid"
	"github.com/watarui/wauth/internal/vault/entity"
	"go.opentelemetry.io/otel/trace"
)

// repoStore persists {site_name, secret} records. Get returns
// goerror.ErrNotFound for a missing site and Create returns
// goerror.ErrConflict when the site already exists.
type repoStore interface {
	Put(ctx context.Context, site entity.Site) error
	Create(ctx context.Context, site entity.Site) error
	Delete(ctx context.Context, siteName string) (bool, error)
	Get(ctx context.Context, siteName string) (*entity.Site, error)
	ListSiteNames(ctx context.Context) ([]string, error)
	// Exists must be a strongly consistent read.
	Exists(ctx context.Context, siteName string) (bool, error)
	Ping(ctx context.Context) error
}

type repoMessaging interface {
	PublishSiteEvent(ctx context.Context, ev entity.SiteEvent) error
}

type Usecase struct {
	repoStore     repoStore
	repoMessaging repoMessaging
	cfg           config.Config
	totp          otp.OTP
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoStore     repoStore
	RepoMessaging repoMessaging
	Config        config.Config
	Totp          otp.OTP
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoStore:     dep.RepoStore,
		repoMessaging: dep.RepoMessaging,
		cfg:           dep.Config,
		totp:          dep.Totp,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("vault.usecase").Start(ctx, name)
}

// strictUniqueness is read per call so a reloaded config applies immediately.
func (s *Usecase) strictUniqueness() bool {
	return s.cfg != nil && s.cfg.GetBool("vault.strict_uniqueness")
}

// publish emits ev in the background. Failures are logged only: the store
// write already succeeded and is the source of truth.
func (s *Usecase) publish(ctx context.Context, typ entity.EventType, siteName string) {
	if s.repoMessaging == nil || s.goroutine == nil {
		return
	}

	ev := entity.SiteEvent{
		ID:         s.uid.Generate(),
		Type:       typ,
		SiteName:   siteName,
		OccurredAt: s.clock.Now().Unix(),
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishSiteEvent(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish site event", "event_type", string(typ), "site_name", siteName, "error", err)
			return err
		}
		return nil
	})
}
