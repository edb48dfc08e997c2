package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	"github.com/hubspaces/billing/internal/clock"
	"github.com/hubspaces/billing/internal/migration"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	tenantrepository "github.com/hubspaces/billing/internal/tenant/repository"
	tenantservice "github.com/hubspaces/billing/internal/tenant/service"
	"github.com/hubspaces/billing/pkg/db"
	"github.com/hubspaces/billing/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clock      *clock.FakeClock
	tenantSvc  tenantdomain.Service
	billingSvc billingdomain.Service
}

func newFixture(t *testing.T, migrate bool) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	if migrate {
		require.NoError(t, migration.AutoMigrate(db))
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	tenantSvc := tenantservice.NewService(tenantservice.ServiceParam{
		Log:   log,
		GenID: node,
		Repo:  tenantrepository.New(db),
	})
	billingSvc := NewService(ServiceParam{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fakeClock,
		TenantSvc: tenantSvc,
	})

	return &fixture{
		db:         db,
		node:       node,
		clock:      fakeClock,
		tenantSvc:  tenantSvc,
		billingSvc: billingSvc,
	}
}

func (f *fixture) createTenant(t *testing.T, typ tenantdomain.Type, req tenantdomain.CreateRequest) *tenantdomain.Tenant {
	t.Helper()
	tenant, err := f.tenantSvc.Create(context.Background(), typ, req)
	require.NoError(t, err)
	return tenant
}

func TestGenerateMonthly_OneRecordPerActiveTenant(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.createTenant(t, tenantdomain.TypeDedicatedDesk, tenantdomain.CreateRequest{
		Name:          "Desk Tenant",
		SelectedSeats: []string{"A1", "A2"},
		Billing:       tenantdomain.BillingSettings{Rate: 5000},
	})
	f.createTenant(t, tenantdomain.TypePrivateOffice, tenantdomain.CreateRequest{
		Name:            "Office Tenant",
		SelectedOffices: []string{"301"},
		Billing:         tenantdomain.BillingSettings{Rate: 20000, CusaFee: 1500},
	})
	f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Virtual Tenant",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})
	f.createTenant(t, tenantdomain.TypeDedicatedDesk, tenantdomain.CreateRequest{
		Name:    "Former Tenant",
		Status:  "inactive",
		Billing: tenantdomain.BillingSettings{Rate: 5000},
	})

	report, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)

	assert.Equal(t, "2024-03", report.BillingMonth)
	assert.Equal(t, 3, report.TotalGenerated)
	assert.Equal(t, 0, report.TotalErrors)
	require.Len(t, report.Records, 3)

	for _, record := range report.Records {
		assert.Equal(t, billingdomain.StatusPending, record.Status)
		assert.Equal(t, "2024-03", record.BillingMonth)
		assert.Equal(t, "credit", record.PaymentMethod)
	}

	desk := report.Records[0]
	assert.Equal(t, "Desk Tenant", desk.TenantName)
	assert.Equal(t, 2, desk.Quantity)
	assert.Equal(t, 10000.0, desk.Subtotal)
	assert.Equal(t, 1200.0, desk.VAT)
	assert.Equal(t, 11200.0, desk.Total)
}

func TestGenerateMonthly_Idempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Repeat Tenant",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})

	first, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalGenerated)
	assert.EqualValues(t, 1, first.TotalForMonth)

	second, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 0, second.TotalGenerated)
	assert.Equal(t, 0, second.TotalErrors)
	assert.EqualValues(t, 1, second.TotalForMonth)

	var count int64
	require.NoError(t, f.db.Model(&billingdomain.Record{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConflictingMonthInsert_IsDuplicateKey(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Race Tenant",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})

	report, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalGenerated)

	// A concurrent run that loses the insert race hits the unique index on
	// (tenant_id, billing_month); the violation must classify as a duplicate
	// so generation treats it as a skip.
	records := repository.ProvideStore[billingdomain.Record](f.db)
	conflict := billingdomain.NewRecord(f.node.Generate(), *tenant, tenantdomain.TypeVirtualOffice, "2024-03", f.clock.Now())
	err = records.Create(ctx, &conflict)
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))

	// A different month inserts fine.
	other := billingdomain.NewRecord(f.node.Generate(), *tenant, tenantdomain.TypeVirtualOffice, "2024-04", f.clock.Now())
	require.NoError(t, records.Create(ctx, &other))

	var count int64
	require.NoError(t, f.db.Model(&billingdomain.Record{}).Where("billing_month = ?", "2024-03").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGenerateMonthly_NewMonthGeneratesAgain(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Long Stay",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})

	_, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)

	report, err := f.billingSvc.GenerateMonthly(ctx, "2024-04")
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalGenerated)
}

func TestGenerateMonthly_InvalidMonth(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.billingSvc.GenerateMonthly(context.Background(), "march-2024")
	assert.ErrorIs(t, err, billingdomain.ErrInvalidMonth)
}

func TestGenerateMonthly_DefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Current Month",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})

	report, err := f.billingSvc.GenerateMonthly(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03", report.BillingMonth)
}

func TestGenerateMonthly_FailingCollectionDoesNotAbortRun(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	// Only the desk table and the billing table exist; the office tables are
	// missing, so their collection queries fail.
	require.NoError(t, f.db.Table(tenantdomain.TypeDedicatedDesk.Table()).AutoMigrate(&tenantdomain.Tenant{}))
	require.NoError(t, f.db.AutoMigrate(&billingdomain.Record{}))

	f.createTenant(t, tenantdomain.TypeDedicatedDesk, tenantdomain.CreateRequest{
		Name:          "Only Desk",
		SelectedSeats: []string{"A1"},
		Billing:       tenantdomain.BillingSettings{Rate: 5000},
	})

	report, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalGenerated)
	assert.Equal(t, 2, report.TotalErrors)

	collections := make([]string, 0, len(report.Errors))
	for _, collectionErr := range report.Errors {
		collections = append(collections, collectionErr.Collection)
		assert.Equal(t, "query_failed", collectionErr.Error)
	}
	assert.ElementsMatch(t, []string{"private_office", "virtual_office"}, collections)
}

func TestGenerateForTenant(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant := f.createTenant(t, tenantdomain.TypePrivateOffice, tenantdomain.CreateRequest{
		Name:            "Manual Run",
		SelectedOffices: []string{"401", "402"},
		Billing:         tenantdomain.BillingSettings{Rate: 15000},
	})

	record, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypePrivateOffice, tenant.ID.String(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, record.Subtotal)

	_, err = f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypePrivateOffice, tenant.ID.String(), "2024-03")
	assert.ErrorIs(t, err, billingdomain.ErrAlreadyBilled)

	_, err = f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypePrivateOffice, f.node.Generate().String(), "2024-03")
	assert.ErrorIs(t, err, billingdomain.ErrTenantNotFound)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Lifecycle",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})
	record, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeVirtualOffice, tenant.ID.String(), "2024-03")
	require.NoError(t, err)

	_, err = f.billingSvc.UpdateStatus(ctx, record.ID.String(), "shipped", "")
	assert.ErrorIs(t, err, billingdomain.ErrInvalidStatus)

	paid, err := f.billingSvc.UpdateStatus(ctx, record.ID.String(), billingdomain.StatusPaid, "OR-20240315-001")
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusPaid, paid.Status)
	assert.Equal(t, "OR-20240315-001", paid.PaymentDetails)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, f.clock.Now(), paid.PaidAt.UTC())

	// Paid is terminal.
	_, err = f.billingSvc.UpdateStatus(ctx, record.ID.String(), billingdomain.StatusPending, "")
	assert.ErrorIs(t, err, billingdomain.ErrInvalidTransition)
	_, err = f.billingSvc.UpdateStatus(ctx, record.ID.String(), billingdomain.StatusCancelled, "")
	assert.ErrorIs(t, err, billingdomain.ErrInvalidTransition)

	stored, err := f.billingSvc.GetByID(ctx, record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusPaid, stored.Status)
}

func TestUpdateStatus_OverdueCanBePaid(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Late Payer",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})
	record, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeVirtualOffice, tenant.ID.String(), "2024-03")
	require.NoError(t, err)

	_, err = f.billingSvc.UpdateStatus(ctx, record.ID.String(), billingdomain.StatusOverdue, "")
	require.NoError(t, err)

	paid, err := f.billingSvc.UpdateStatus(ctx, record.ID.String(), billingdomain.StatusPaid, "late payment")
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusPaid, paid.Status)
}

func TestUpdateFees_ReplacesNotAccrues(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant := f.createTenant(t, tenantdomain.TypeDedicatedDesk, tenantdomain.CreateRequest{
		Name:          "Fee Tenant",
		SelectedSeats: []string{"C1"},
		Billing:       tenantdomain.BillingSettings{Rate: 5000, CusaFee: 500},
	})
	record, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeDedicatedDesk, tenant.ID.String(), "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 5500.0, record.Subtotal)

	updated, err := f.billingSvc.UpdateFees(ctx, record.ID.String(), billingdomain.UpdateFeesRequest{
		PenaltyFee: 300,
		Notes:      "paid after the 15th",
	})
	require.NoError(t, err)
	assert.Equal(t, 5800.0, updated.Subtotal)
	assert.Equal(t, 696.0, updated.VAT)
	assert.Equal(t, 6496.0, updated.Total)
	assert.Equal(t, "paid after the 15th", updated.Notes)

	penaltyLines := 0
	for _, item := range updated.Items {
		if item.Description == billingdomain.ItemPenaltyFee {
			penaltyLines++
			assert.Equal(t, 300.0, item.Amount)
		}
	}
	assert.Equal(t, 1, penaltyLines)

	// A second update replaces the penalty instead of stacking it.
	updated, err = f.billingSvc.UpdateFees(ctx, record.ID.String(), billingdomain.UpdateFeesRequest{
		PenaltyFee: 450,
		DamageFee:  1000,
	})
	require.NoError(t, err)
	assert.Equal(t, 6950.0, updated.Subtotal)

	penaltyLines = 0
	damageLines := 0
	for _, item := range updated.Items {
		switch item.Description {
		case billingdomain.ItemPenaltyFee:
			penaltyLines++
			assert.Equal(t, 450.0, item.Amount)
		case billingdomain.ItemDamageFee:
			damageLines++
			assert.Equal(t, 1000.0, item.Amount)
		}
	}
	assert.Equal(t, 1, penaltyLines)
	assert.Equal(t, 1, damageLines)

	stored, err := f.billingSvc.GetByID(ctx, record.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 6950.0, stored.Subtotal)
	assert.Equal(t, 450.0, stored.PenaltyFee)
	assert.Equal(t, 1000.0, stored.DamageFee)
}

func TestUpdateFees_ZeroRemovesLines(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Waived",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})
	record, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeVirtualOffice, tenant.ID.String(), "2024-03")
	require.NoError(t, err)

	_, err = f.billingSvc.UpdateFees(ctx, record.ID.String(), billingdomain.UpdateFeesRequest{PenaltyFee: 300})
	require.NoError(t, err)

	updated, err := f.billingSvc.UpdateFees(ctx, record.ID.String(), billingdomain.UpdateFeesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, updated.Subtotal)
	for _, item := range updated.Items {
		assert.NotEqual(t, billingdomain.ItemPenaltyFee, item.Description)
		assert.NotEqual(t, billingdomain.ItemDamageFee, item.Description)
	}
}

func TestSweepOverdue_StrictlyPastDueOnly(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	// Due dates count 30 days from the contract start, so start dates placed
	// around now-30d put due dates on either side of the sweep instant.
	now := f.clock.Now()
	pastStart := now.Add(-31 * 24 * time.Hour)
	exactStart := now.Add(-30 * 24 * time.Hour)
	futureStart := now.Add(-10 * 24 * time.Hour)

	overdueTenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Past Due",
		Billing: tenantdomain.BillingSettings{Rate: 2500, StartDate: &pastStart},
	})
	dueNowTenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Due This Instant",
		Billing: tenantdomain.BillingSettings{Rate: 2500, StartDate: &exactStart},
	})
	currentTenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Not Yet Due",
		Billing: tenantdomain.BillingSettings{Rate: 2500, StartDate: &futureStart},
	})

	overdueRec, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeVirtualOffice, overdueTenant.ID.String(), "2024-03")
	require.NoError(t, err)
	dueNowRec, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeVirtualOffice, dueNowTenant.ID.String(), "2024-03")
	require.NoError(t, err)
	currentRec, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeVirtualOffice, currentTenant.ID.String(), "2024-03")
	require.NoError(t, err)

	transitioned, err := f.billingSvc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{overdueRec.ID.String()}, transitioned)

	stored, err := f.billingSvc.GetByID(ctx, overdueRec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusOverdue, stored.Status)

	stored, err = f.billingSvc.GetByID(ctx, dueNowRec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusPending, stored.Status)

	stored, err = f.billingSvc.GetByID(ctx, currentRec.ID.String())
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusPending, stored.Status)
}

func TestSweepOverdue_IgnoresPaidRecords(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	start := f.clock.Now().Add(-60 * 24 * time.Hour)
	tenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Paid Early",
		Billing: tenantdomain.BillingSettings{Rate: 2500, StartDate: &start},
	})
	record, err := f.billingSvc.GenerateForTenant(ctx, tenantdomain.TypeVirtualOffice, tenant.ID.String(), "2024-03")
	require.NoError(t, err)
	_, err = f.billingSvc.UpdateStatus(ctx, record.ID.String(), billingdomain.StatusPaid, "")
	require.NoError(t, err)

	transitioned, err := f.billingSvc.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Empty(t, transitioned)
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tenant := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Lister",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})
	other := f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Other",
		Billing: tenantdomain.BillingSettings{Rate: 3000},
	})

	_, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)
	_, err = f.billingSvc.GenerateMonthly(ctx, "2024-04")
	require.NoError(t, err)

	all, err := f.billingSvc.List(ctx, billingdomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	march, err := f.billingSvc.List(ctx, billingdomain.ListRequest{Month: "2024-03"})
	require.NoError(t, err)
	assert.Len(t, march, 2)

	byTenant, err := f.billingSvc.List(ctx, billingdomain.ListRequest{TenantID: tenant.ID.String()})
	require.NoError(t, err)
	assert.Len(t, byTenant, 2)
	for _, record := range byTenant {
		assert.Equal(t, tenant.ID, record.TenantID)
		assert.NotEqual(t, other.ID, record.TenantID)
	}

	capped, err := f.billingSvc.List(ctx, billingdomain.ListRequest{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, capped, 3)

	_, err = f.billingSvc.List(ctx, billingdomain.ListRequest{TenantID: "not-a-snowflake"})
	assert.ErrorIs(t, err, billingdomain.ErrRecordNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.billingSvc.GetByID(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, billingdomain.ErrRecordNotFound)

	_, err = f.billingSvc.GetByID(context.Background(), "garbage")
	assert.ErrorIs(t, err, billingdomain.ErrRecordNotFound)
}

func TestStatistics(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.createTenant(t, tenantdomain.TypeDedicatedDesk, tenantdomain.CreateRequest{
		Name:          "Desk Stats",
		SelectedSeats: []string{"A1"},
		Billing:       tenantdomain.BillingSettings{Rate: 5000},
	})
	f.createTenant(t, tenantdomain.TypeVirtualOffice, tenantdomain.CreateRequest{
		Name:    "Virtual Stats",
		Billing: tenantdomain.BillingSettings{Rate: 2500},
	})

	report, err := f.billingSvc.GenerateMonthly(ctx, "2024-03")
	require.NoError(t, err)
	require.Len(t, report.Records, 2)

	_, err = f.billingSvc.UpdateStatus(ctx, report.Records[0].ID.String(), billingdomain.StatusPaid, "")
	require.NoError(t, err)

	stats, err := f.billingSvc.Statistics(ctx, "2024-03")
	require.NoError(t, err)

	assert.Equal(t, "2024-03", stats.Month)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 8400.0, stats.TotalBilled) // 5600 + 2800
	assert.Equal(t, 5600.0, stats.TotalPaid)

	assert.Equal(t, 1, stats.ByStatus[billingdomain.StatusPaid].Count)
	assert.Equal(t, 1, stats.ByStatus[billingdomain.StatusPending].Count)
	assert.Equal(t, 5600.0, stats.ByTenantType[tenantdomain.TypeDedicatedDesk].Total)
	assert.Equal(t, 2800.0, stats.ByTenantType[tenantdomain.TypeVirtualOffice].Total)

	empty, err := f.billingSvc.Statistics(ctx, "2030-01")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalRecords)
}
