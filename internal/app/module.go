package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpauth/internal/auth"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		if err := auth.New(auth.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Cache:      a.cache,
			Locker:     a.locker,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			HMAC:       a.hmac,
			Clock:      a.clock,
			Totp:       a.totp,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}
}
