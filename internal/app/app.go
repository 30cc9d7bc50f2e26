// Package app wires configuration, infrastructure and the vault module for
// both the command line and the HTTP server.
package app

import (
	"context"
	"io"
	"net/http"

	"github.com/watarui/wauth/internal/pkg/clock"
	"github.com/watarui/wauth/internal/pkg/config"
	"github.com/watarui/wauth/internal/pkg/goroutine"
	"github.com/watarui/wauth/internal/pkg/idempotency"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/jwt"
	"github.com/watarui/wauth/internal/pkg/messaging"
	"github.com/watarui/wauth/internal/pkg/otp"
	"github.com/watarui/wauth/internal/pkg/router"
	"github.com/watarui/wauth/internal/pkg/uid"
	"github.com/watarui/wauth/internal/pkg/validator"
	"github.com/watarui/wauth/internal/vault/outbound/store"
	"github.com/watarui/wauth/internal/vault/usecase"
)

// Options select how the App is built.
type Options struct {
	// ConfigPath is an explicit config file (--config).
	ConfigPath string
	// Overrides win over every config source, e.g. --profile.
	Overrides map[string]any
	// Server builds the HTTP server, watches the config file and waits for
	// the store to become reachable.
	Server bool
	// LogOutput receives JSON logs. Defaults to stderr for the command line
	// and stdout for the server.
	LogOutput io.Writer
	// Clock replaces the wall clock.
	Clock clock.Clocker
}

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	// configuration
	config *config.Viper
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	totp      otp.OTP
	jwt       jwt.JWT

	// resources
	store       store.Store
	messaging   messaging.Publisher
	idempotency idempotency.Idempotency

	// modules
	vault *usecase.Usecase

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application. Every resource opened before a failing
// step is released again.
func New(ctx context.Context, opts Options) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
	}

	steps := []func() error{
		app.initConfig,
		app.initInstrument,
		app.initLibraries,
		app.initJWT,
		app.initStore,
		app.initMessaging,
		app.initIdempotency,
		app.initHTTPServer,
		app.initModules,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			app.close(context.Background())
			cancel()
			return nil, err
		}
	}

	return app, nil
}

// Vault returns the vault usecase.
func (a *App) Vault() *usecase.Usecase { return a.vault }

// Config returns the resolved configuration.
func (a *App) Config() *config.Viper { return a.config }

// JWT returns the token signer, or nil when auth.enabled is false.
func (a *App) JWT() jwt.JWT { return a.jwt }

// Handler returns the HTTP handler, or nil outside server mode.
func (a *App) Handler() http.Handler {
	if a.httpServer == nil {
		return nil
	}
	return a.httpServer.Handler
}
