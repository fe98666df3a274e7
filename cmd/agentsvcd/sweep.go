package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/agentsvc/internal/logging"
	"github.com/R3E-Network/agentsvc/pkg/config"
	"github.com/R3E-Network/agentsvc/session"
)

// startSessionSweep wires a cron job that abandons idle sessions and
// releases the locks they held: the crash-recovery counterpart to the
// inline release Merge/Abandon already perform. Returns a stoppable
// cron.Cron; errors registering the job are logged and treated as
// "sweep disabled" rather than fatal, since normal operation never
// strictly depends on it.
func startSessionSweep(ctx context.Context, sessions *session.Manager, cfg config.SessionConfig, log *logging.Logger) *cron.Cron {
	c := cron.New()
	idle := time.Duration(cfg.IdleTimeoutSecs) * time.Second
	if idle <= 0 {
		idle = 30 * time.Minute
	}

	_, err := c.AddFunc(cfg.LockSweepCron, func() {
		n := sessions.SweepIdle(idle)
		if n > 0 {
			log.Info(ctx, "session idle sweep abandoned stale sessions", map[string]interface{}{"count": n})
		}
	})
	if err != nil {
		log.Warn(ctx, "session sweep not scheduled", map[string]interface{}{"error": err.Error()})
		return c
	}

	c.Start()
	return c
}
