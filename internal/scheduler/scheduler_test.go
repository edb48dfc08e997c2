package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	"github.com/hubspaces/billing/internal/clock"
	"github.com/hubspaces/billing/internal/config"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type billingStub struct {
	generateCalls int
	sweepCalls    int

	generateErr error
	sweepErr    error
	report      billingdomain.RunReport
	swept       []string
}

func (s *billingStub) GenerateMonthly(ctx context.Context, month string) (billingdomain.RunReport, error) {
	s.generateCalls++
	return s.report, s.generateErr
}

func (s *billingStub) GenerateForTenant(ctx context.Context, typ tenantdomain.Type, tenantID, month string) (*billingdomain.Record, error) {
	return nil, nil
}

func (s *billingStub) List(ctx context.Context, req billingdomain.ListRequest) ([]billingdomain.Record, error) {
	return nil, nil
}

func (s *billingStub) GetByID(ctx context.Context, id string) (*billingdomain.Record, error) {
	return nil, nil
}

func (s *billingStub) UpdateStatus(ctx context.Context, id string, status billingdomain.Status, paymentDetails string) (*billingdomain.Record, error) {
	return nil, nil
}

func (s *billingStub) UpdateFees(ctx context.Context, id string, req billingdomain.UpdateFeesRequest) (*billingdomain.Record, error) {
	return nil, nil
}

func (s *billingStub) SweepOverdue(ctx context.Context) ([]string, error) {
	s.sweepCalls++
	return s.swept, s.sweepErr
}

func (s *billingStub) Statistics(ctx context.Context, month string) (billingdomain.Stats, error) {
	return billingdomain.Stats{}, nil
}

func newTestScheduler(t *testing.T, stub *billingStub, ops config.OperationalConfig) *Scheduler {
	t.Helper()

	sched, err := New(Params{
		Log:        zap.NewNop(),
		Ops:        config.NewStaticOperationalHolder(ops),
		BillingSvc: stub,
		Clock:      clock.NewFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return sched
}

func TestRunOnce_RunsBothJobs(t *testing.T) {
	stub := &billingStub{
		report: billingdomain.RunReport{BillingMonth: "2024-03", TotalGenerated: 2},
		swept:  []string{"1", "2"},
	}
	sched := newTestScheduler(t, stub, config.DefaultOperationalConfig())

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, 1, stub.generateCalls)
	assert.Equal(t, 1, stub.sweepCalls)
}

func TestRunOnce_DisabledJobsAreSkipped(t *testing.T) {
	stub := &billingStub{}
	ops := config.DefaultOperationalConfig()
	ops.DisabledJobs = []string{JobMonthlyGeneration}
	sched := newTestScheduler(t, stub, ops)

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, 0, stub.generateCalls)
	assert.Equal(t, 1, stub.sweepCalls)
}

func TestRunOnce_JobErrorIsReported(t *testing.T) {
	stub := &billingStub{generateErr: errors.New("db down")}
	sched := newTestScheduler(t, stub, config.DefaultOperationalConfig())

	err := sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobMonthlyGeneration)

	// The sweep still ran despite the generation failure.
	assert.Equal(t, 1, stub.sweepCalls)
}

func TestRunOnce_DeadlineIsSoftTimeout(t *testing.T) {
	stub := &billingStub{generateErr: context.DeadlineExceeded}
	sched := newTestScheduler(t, stub, config.DefaultOperationalConfig())

	assert.NoError(t, sched.RunOnce(context.Background()))
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNilLockerActsAsSingleNode(t *testing.T) {
	var locker *Locker

	token, acquired, err := locker.TryLock(context.Background(), "billingd:jobs:test", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.Empty(t, token)

	assert.NoError(t, locker.Release(context.Background(), "billingd:jobs:test", token))
}
