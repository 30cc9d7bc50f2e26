package vault

import (
	"github.com/watarui/wauth/internal/pkg/clock"
	"github.com/watarui/wauth/internal/pkg/config"
	"github.com/watarui/wauth/internal/pkg/goroutine"
	"github.com/watarui/wauth/internal/pkg/idempotency"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/pkg/messaging"
	"github.com/watarui/wauth/internal/pkg/otp"
	"github.com/watarui/wauth/internal/pkg/router"
	"github.com/watarui/wauth/internal/pkg/uid"
	"github.com/watarui/wauth/internal/pkg/validator"
	"github.com/watarui/wauth/internal/vault/inbound"
	"github.com/watarui/wauth/internal/vault/outbound/mq"
	"github.com/watarui/wauth/internal/vault/outbound/store"
	"github.com/watarui/wauth/internal/vault/usecase"
)

type Dependency struct {
	Store      store.Store                `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	// Router is nil for command line use; the HTTP and GraphQL endpoints
	// are only registered when it is set.
	Router *router.Router
	// Idempotency guards REST writes carrying an Idempotency-Key header. Optional.
	Idempotency idempotency.Idempotency
}

func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument, dep.Config.GetString("events.topic"))

	uc := usecase.New(usecase.Dependency{
		RepoStore:     dep.Store,
		RepoMessaging: repoMsg,
		Config:        dep.Config,
		Totp:          dep.Totp,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	if dep.Router != nil {
		inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Idempotency)
		inbound.RegisterGraphQLEndpoint(dep.Router, uc)
	}

	return uc, nil
}
