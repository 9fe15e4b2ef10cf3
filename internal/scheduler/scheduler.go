package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	applog "clubfund/internal/log"
)

// Jobs are the periodic tasks the worker runs.
type Jobs interface {
	ExportSnapshot(ctx context.Context) error
	SendDigest(ctx context.Context) error
}

const jobTimeout = 2 * time.Minute

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	ctx  context.Context
	log  *applog.Logger
}

// New creates a scheduler evaluating six-field expressions in loc.
func New(ctx context.Context, jobs Jobs, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		jobs: jobs,
		ctx:  ctx,
		log:  applog.Default(applog.ComponentScheduler),
	}
}

// Register adds the export and digest tasks. An empty expression skips
// that task.
func (s *Scheduler) Register(exportCron, digestCron string) error {
	if exportCron != "" {
		if _, err := s.cron.AddFunc(exportCron, s.exportTask); err != nil {
			return fmt.Errorf("register export task: %w", err)
		}
	}
	if digestCron != "" {
		if _, err := s.cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started", "tasks", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running tasks or ctx, whichever
// comes first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with tasks still running")
	}
	s.log.Info("Scheduler stopped")
}

// RunExportNow executes the export task immediately.
func (s *Scheduler) RunExportNow() {
	s.exportTask()
}

func (s *Scheduler) exportTask() {
	s.run(applog.OpExport, s.jobs.ExportSnapshot)
}

func (s *Scheduler) digestTask() {
	s.run(applog.OpNotify, s.jobs.SendDigest)
}

func (s *Scheduler) run(op string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.ErrorContext(ctx, "Scheduled task failed",
			applog.FieldOperation, op,
			applog.FieldError, err)
		return
	}
	s.log.InfoContext(ctx, "Scheduled task completed",
		applog.FieldOperation, op,
		applog.FieldDuration, time.Since(start).Milliseconds())
}
