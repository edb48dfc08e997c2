package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	"github.com/hubspaces/billing/internal/clock"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"github.com/hubspaces/billing/pkg/db"
	"github.com/hubspaces/billing/pkg/db/option"
	"github.com/hubspaces/billing/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	TenantSvc tenantdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	records   repository.Repository[billingdomain.Record]
	tenantSvc tenantdomain.Service
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("billing.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		records:   repository.ProvideStore[billingdomain.Record](p.DB),
		tenantSvc: p.TenantSvc,
	}
}

// GenerateMonthly iterates the three tenant-type collections in sequence and
// creates one pending record per active tenant that does not yet have one for
// the target month. A failure in one collection is reported and the run moves
// on to the next; only a malformed month key fails the whole operation.
func (s *Service) GenerateMonthly(ctx context.Context, month string) (billingdomain.RunReport, error) {
	if strings.TrimSpace(month) == "" {
		month = billingdomain.MonthOf(s.clock.Now())
	}
	month, err := billingdomain.ParseMonth(month)
	if err != nil {
		return billingdomain.RunReport{}, err
	}

	report := billingdomain.RunReport{BillingMonth: month}
	log := s.log.With(zap.String("billing_month", month))

	for _, typ := range tenantdomain.Types() {
		tenants, err := s.tenantSvc.ListActive(ctx, typ)
		if err != nil {
			log.Warn("tenant collection query failed",
				zap.String("collection", typ.Table()),
				zap.Error(err),
			)
			report.Errors = append(report.Errors, billingdomain.CollectionError{
				Collection: typ.Table(),
				Error:      "query_failed",
				Details:    err.Error(),
			})
			continue
		}

		for _, tenant := range tenants {
			record, err := s.generateOne(ctx, tenant, typ, month)
			if err != nil {
				report.Errors = append(report.Errors, billingdomain.CollectionError{
					Collection: typ.Table(),
					Error:      "generation_failed",
					Details:    fmt.Sprintf("tenant %s: %v", tenant.ID, err),
				})
				continue
			}
			if record != nil {
				report.Records = append(report.Records, *record)
			}
		}
	}

	report.TotalGenerated = len(report.Records)
	report.TotalErrors = len(report.Errors)

	if total, err := s.records.Count(ctx, &billingdomain.Record{BillingMonth: month}); err != nil {
		log.Warn("month total count failed", zap.Error(err))
	} else {
		report.TotalForMonth = total
	}

	log.Info("monthly billing generation finished",
		zap.Int("total_generated", report.TotalGenerated),
		zap.Int("total_errors", report.TotalErrors),
		zap.Int64("total_for_month", report.TotalForMonth),
	)
	return report, nil
}

func (s *Service) GenerateForTenant(ctx context.Context, typ tenantdomain.Type, tenantID, month string) (*billingdomain.Record, error) {
	if strings.TrimSpace(month) == "" {
		month = billingdomain.MonthOf(s.clock.Now())
	}
	month, err := billingdomain.ParseMonth(month)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantSvc.Get(ctx, typ, tenantID)
	if err != nil {
		if err == tenantdomain.ErrNotFound {
			return nil, billingdomain.ErrTenantNotFound
		}
		return nil, err
	}

	record, err := s.generateOne(ctx, *tenant, typ, month)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, billingdomain.ErrAlreadyBilled
	}
	return record, nil
}

// generateOne creates a record unless one already exists for the tenant and
// month. The unique index on (tenant_id, billing_month) backs up the
// existence check: a concurrent run losing the insert race is treated as an
// ordinary skip, never a duplicate.
func (s *Service) generateOne(ctx context.Context, tenant tenantdomain.Tenant, typ tenantdomain.Type, month string) (*billingdomain.Record, error) {
	existing, err := s.records.FindOne(ctx, &billingdomain.Record{
		TenantID:     tenant.ID,
		BillingMonth: month,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	record := billingdomain.NewRecord(s.genID.Generate(), tenant, typ, month, s.clock.Now())
	if err := s.records.Create(ctx, &record); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (s *Service) List(ctx context.Context, req billingdomain.ListRequest) ([]billingdomain.Record, error) {
	filter := &billingdomain.Record{
		BillingMonth: strings.TrimSpace(req.Month),
		Status:       req.Status,
	}
	if id := strings.TrimSpace(req.TenantID); id != "" {
		tenantID, err := snowflake.ParseString(id)
		if err != nil {
			return nil, billingdomain.ErrRecordNotFound
		}
		filter.TenantID = tenantID
	}

	items, err := s.records.Find(ctx, filter,
		option.WithOrder("billing_date DESC"),
		option.WithLimit(req.Limit),
	)
	if err != nil {
		return nil, err
	}

	records := make([]billingdomain.Record, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}
	return records, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*billingdomain.Record, error) {
	recordID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, billingdomain.ErrRecordNotFound
	}

	record, err := s.records.FindOne(ctx, &billingdomain.Record{ID: recordID})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, billingdomain.ErrRecordNotFound
	}
	return record, nil
}

// UpdateStatus moves a record through the lifecycle state machine. Marking a
// record paid stamps PaidAt and stores the payment details verbatim; amounts
// are never recomputed on this path.
func (s *Service) UpdateStatus(ctx context.Context, id string, status billingdomain.Status, paymentDetails string) (*billingdomain.Record, error) {
	if !billingdomain.ValidStatus(status) {
		return nil, billingdomain.ErrInvalidStatus
	}

	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !billingdomain.CanTransition(record.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", billingdomain.ErrInvalidTransition, record.Status, status)
	}

	updates := map[string]any{"status": status}
	record.Status = status
	if status == billingdomain.StatusPaid {
		now := s.clock.Now()
		record.PaidAt = &now
		record.PaymentDetails = paymentDetails
		updates["paid_at"] = now
		updates["payment_details"] = paymentDetails
	}

	if err := s.records.Update(ctx, record.ID.String(), updates); err != nil {
		return nil, err
	}

	s.log.Info("billing status updated",
		zap.String("billing_id", record.ID.String()),
		zap.String("status", string(status)),
	)
	return record, nil
}

// UpdateFees replaces the penalty and damage fees on a record, recomputes
// subtotal, VAT and total, and rewrites the penalty/damage item lines.
func (s *Service) UpdateFees(ctx context.Context, id string, req billingdomain.UpdateFeesRequest) (*billingdomain.Record, error) {
	record, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	penalty := sanitizeAmount(req.PenaltyFee)
	damage := sanitizeAmount(req.DamageFee)

	subtotal := billingdomain.Round2(record.Subtotal - record.PenaltyFee - record.DamageFee + penalty + damage)
	vat := billingdomain.Round2(subtotal * billingdomain.VATRate)
	total := billingdomain.Round2(subtotal + vat)

	items := make([]billingdomain.LineItem, 0, len(record.Items)+2)
	for _, item := range record.Items {
		if item.Description == billingdomain.ItemPenaltyFee || item.Description == billingdomain.ItemDamageFee {
			continue
		}
		items = append(items, item)
	}
	if penalty > 0 {
		items = append(items, billingdomain.LineItem{
			Description: billingdomain.ItemPenaltyFee,
			Quantity:    1,
			UnitPrice:   penalty,
			Amount:      penalty,
		})
	}
	if damage > 0 {
		items = append(items, billingdomain.LineItem{
			Description: billingdomain.ItemDamageFee,
			Quantity:    1,
			UnitPrice:   damage,
			Amount:      damage,
		})
	}

	record.PenaltyFee = penalty
	record.DamageFee = damage
	record.Subtotal = subtotal
	record.VAT = vat
	record.Total = total
	record.Items = datatypes.JSONSlice[billingdomain.LineItem](items)
	if strings.TrimSpace(req.Notes) != "" {
		record.Notes = strings.TrimSpace(req.Notes)
	}

	updates := map[string]any{
		"penalty_fee": penalty,
		"damage_fee":  damage,
		"subtotal":    subtotal,
		"vat":         vat,
		"total":       total,
		"items":       record.Items,
		"notes":       record.Notes,
	}
	if err := s.records.Update(ctx, record.ID.String(), updates); err != nil {
		return nil, err
	}

	s.log.Info("billing fees updated",
		zap.String("billing_id", record.ID.String()),
		zap.Float64("penalty_fee", penalty),
		zap.Float64("damage_fee", damage),
	)
	return record, nil
}

// SweepOverdue transitions every pending record whose due date has strictly
// passed. A record due exactly now stays pending.
func (s *Service) SweepOverdue(ctx context.Context) ([]string, error) {
	now := s.clock.Now()
	pending, err := s.records.Find(ctx,
		&billingdomain.Record{Status: billingdomain.StatusPending},
		option.ApplyOperator(option.Condition{Field: "due_date", Operator: option.LT, Value: now}),
	)
	if err != nil {
		return nil, err
	}

	transitioned := make([]string, 0, len(pending))
	for _, record := range pending {
		if record == nil {
			continue
		}
		if err := s.records.Update(ctx, record.ID.String(), map[string]any{"status": billingdomain.StatusOverdue}); err != nil {
			return transitioned, err
		}
		transitioned = append(transitioned, record.ID.String())
	}

	if len(transitioned) > 0 {
		s.log.Info("overdue sweep finished", zap.Int("transitioned", len(transitioned)))
	}
	return transitioned, nil
}

// Statistics reduces a month's records into totals by status and tenant type.
func (s *Service) Statistics(ctx context.Context, month string) (billingdomain.Stats, error) {
	if strings.TrimSpace(month) == "" {
		month = billingdomain.MonthOf(s.clock.Now())
	}
	month, err := billingdomain.ParseMonth(month)
	if err != nil {
		return billingdomain.Stats{}, err
	}

	records, err := s.records.Find(ctx, &billingdomain.Record{BillingMonth: month})
	if err != nil {
		return billingdomain.Stats{}, err
	}

	stats := billingdomain.Stats{
		Month:        month,
		ByStatus:     make(map[billingdomain.Status]billingdomain.StatusBucket),
		ByTenantType: make(map[tenantdomain.Type]billingdomain.StatusBucket),
	}
	for _, record := range records {
		if record == nil {
			continue
		}
		stats.TotalRecords++
		stats.TotalBilled = billingdomain.Round2(stats.TotalBilled + record.Total)
		if record.Status == billingdomain.StatusPaid {
			stats.TotalPaid = billingdomain.Round2(stats.TotalPaid + record.Total)
		}

		byStatus := stats.ByStatus[record.Status]
		byStatus.Count++
		byStatus.Total = billingdomain.Round2(byStatus.Total + record.Total)
		stats.ByStatus[record.Status] = byStatus

		byType := stats.ByTenantType[record.TenantType]
		byType.Count++
		byType.Total = billingdomain.Round2(byType.Total + record.Total)
		stats.ByTenantType[record.TenantType] = byType
	}
	return stats, nil
}

func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
