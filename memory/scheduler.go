package memory

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/agentsvc/internal/logging"
)

// SchedulerConfig controls the periodic consolidation and forgetting
// sweeps.
type SchedulerConfig struct {
	// ConsolidationSpec is a standard 5-field cron expression for the
	// consolidation sweep, e.g. "0 */6 * * *" for every six hours.
	ConsolidationSpec string
	// ForgettingSpec is a standard 5-field cron expression for the
	// forgetting sweep.
	ForgettingSpec string
	ForgetTTL      time.Duration
	MinImportance  float64
}

// Scheduler drives the Subsystem's consolidation and forgetting jobs on
// a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	sub  *Subsystem
	cfg  SchedulerConfig
	log  *logging.Logger
}

// NewScheduler wires a Subsystem to a cron-driven consolidation and
// forgetting loop. Call Start to begin running jobs; Stop to halt them.
func NewScheduler(sub *Subsystem, cfg SchedulerConfig, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Default()
	}
	if cfg.ConsolidationSpec == "" {
		cfg.ConsolidationSpec = "0 */6 * * *"
	}
	if cfg.ForgettingSpec == "" {
		cfg.ForgettingSpec = "0 3 * * *"
	}
	if cfg.ForgetTTL == 0 {
		cfg.ForgetTTL = 30 * 24 * time.Hour
	}
	return &Scheduler{cron: cron.New(), sub: sub, cfg: cfg, log: log}
}

// Start registers the consolidation and forgetting jobs and begins
// running them on their configured schedules.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.ConsolidationSpec, func() {
		promoted, err := s.sub.Consolidate(ctx, DefaultConsolidationThreshold)
		if err != nil {
			s.log.Warn(ctx, "memory consolidation sweep failed", map[string]interface{}{"error": err.Error()})
			return
		}
		s.log.Info(ctx, "memory consolidation sweep completed", map[string]interface{}{"patterns_promoted": len(promoted)})
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(s.cfg.ForgettingSpec, func() {
		removed, err := s.sub.Episodic.Forget(ctx, s.cfg.ForgetTTL, s.cfg.MinImportance)
		if err != nil {
			s.log.Warn(ctx, "memory forgetting sweep failed", map[string]interface{}{"error": err.Error()})
			return
		}
		s.log.Info(ctx, "memory forgetting sweep completed", map[string]interface{}{"episodes_removed": removed})
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
