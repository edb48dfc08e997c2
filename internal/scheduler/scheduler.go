// Package scheduler drives the recurring billing jobs: the monthly record
// generation run and the overdue sweep. Cadence, job toggles and the lock
// TTL come from the hot-reloaded operational config.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	"github.com/hubspaces/billing/internal/clock"
	"github.com/hubspaces/billing/internal/config"
	obsmetrics "github.com/hubspaces/billing/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobMonthlyGeneration = "monthly_generation"
	JobOverdueSweep      = "overdue_sweep"

	jobTimeout = 5 * time.Minute
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log        *zap.Logger
	Ops        *config.OperationalHolder
	BillingSvc billingdomain.Service
	Clock      clock.Clock
	Locker     *Locker `optional:"true"`
}

type Scheduler struct {
	log        *zap.Logger
	ops        *config.OperationalHolder
	billingSvc billingdomain.Service
	clock      clock.Clock
	locker     *Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Ops == nil || p.BillingSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:        p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		ops:        p.Ops,
		billingSvc: p.BillingSvc,
		clock:      p.Clock,
		locker:     p.Locker,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	key := "billingd:jobs:" + name
	token, acquired, err := s.locker.TryLock(ctx, key, s.ops.Get().LockTTL)
	if err != nil {
		s.log.Warn("job lock unavailable", zap.String("job", name), zap.Error(err))
		return nil
	}
	if !acquired {
		s.log.Debug("job held by another replica", zap.String("job", name))
		return nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("job lock release failed", zap.String("job", name), zap.Error(err))
		}
	}()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err = fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", jobTimeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	ops := s.ops.Get()

	var err error
	if ops.JobEnabled(JobMonthlyGeneration) {
		err = errors.Join(err, s.runJob(parent, JobMonthlyGeneration, s.MonthlyGenerationJob))
	}
	if ops.JobEnabled(JobOverdueSweep) {
		err = errors.Join(err, s.runJob(parent, JobOverdueSweep, s.OverdueSweepJob))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.ops.Get().RunInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		// Pick up hot-reloaded intervals on the next tick.
		if next := s.ops.Get().RunInterval; next != interval && next > 0 {
			interval = next
			ticker.Reset(interval)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// MonthlyGenerationJob generates billing records for the current month. The
// run is idempotent, so firing every interval only produces records once.
func (s *Scheduler) MonthlyGenerationJob(ctx context.Context) error {
	report, err := s.billingSvc.GenerateMonthly(ctx, "")
	if err != nil {
		return err
	}

	schedMetrics := obsmetrics.Scheduler()
	byType := map[string]int{}
	for _, record := range report.Records {
		byType[string(record.TenantType)]++
	}
	for tenantType, n := range byType {
		schedMetrics.AddRecordsGenerated(tenantType, n)
	}

	if report.TotalErrors > 0 {
		s.log.Warn("generation run finished with collection errors",
			zap.String("billing_month", report.BillingMonth),
			zap.Int("generated", report.TotalGenerated),
			zap.Int("errors", report.TotalErrors),
		)
	} else if report.TotalGenerated > 0 {
		s.log.Info("generation run complete",
			zap.String("billing_month", report.BillingMonth),
			zap.Int("generated", report.TotalGenerated),
		)
	}
	return nil
}

// OverdueSweepJob flips pending records past their due date to overdue.
func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	ids, err := s.billingSvc.SweepOverdue(ctx)
	if err != nil {
		return err
	}

	obsmetrics.Scheduler().AddOverdueSwept(len(ids))
	if len(ids) > 0 {
		s.log.Info("overdue sweep complete", zap.Int("transitioned", len(ids)))
	}
	return nil
}
