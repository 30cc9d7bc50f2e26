package app

import (
	"fmt"

	"github.com/watarui/wauth/internal/vault"
)

func (a *App) initModules() error {
	uc, err := vault.New(vault.Dependency{
		Store:      a.store,
		Messaging:  a.messaging,
		Goroutine:  a.goroutine,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Clock:      a.clock,
		Totp:       a.totp,
		Validator:  a.validator,
		Router:     a.router,

		Idempotency: a.idempotency,
	})
	if err != nil {
		return fmt.Errorf("failed to init module vault: %w", err)
	}

	a.vault = uc
	return nil
}
