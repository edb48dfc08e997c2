package service

import (
	"context"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  tenantdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  tenantdomain.Repository
}

func NewService(p ServiceParam) tenantdomain.Service {
	return &Service{
		log:   p.Log.Named("tenant.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, typ tenantdomain.Type, filter tenantdomain.ListFilter) ([]tenantdomain.Tenant, error) {
	return s.repo.List(ctx, typ, filter)
}

func (s *Service) ListActive(ctx context.Context, typ tenantdomain.Type) ([]tenantdomain.Tenant, error) {
	return s.repo.List(ctx, typ, tenantdomain.ListFilter{Status: tenantdomain.StatusActive})
}

func (s *Service) Get(ctx context.Context, typ tenantdomain.Type, id string) (*tenantdomain.Tenant, error) {
	tenant, err := s.repo.Get(ctx, typ, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, tenantdomain.ErrNotFound
	}
	return tenant, nil
}

func (s *Service) Create(ctx context.Context, typ tenantdomain.Type, req tenantdomain.CreateRequest) (*tenantdomain.Tenant, error) {
	tenant, err := s.normalize(typ, req)
	if err != nil {
		return nil, err
	}
	tenant.ID = s.genID.Generate()

	if err := s.repo.Create(ctx, typ, tenant); err != nil {
		return nil, err
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("tenant_type", string(typ)),
	)
	return tenant, nil
}

func (s *Service) Update(ctx context.Context, typ tenantdomain.Type, id string, req tenantdomain.CreateRequest) (*tenantdomain.Tenant, error) {
	existing, err := s.repo.Get(ctx, typ, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, tenantdomain.ErrNotFound
	}

	tenant, err := s.normalize(typ, req)
	if err != nil {
		return nil, err
	}
	tenant.ID = existing.ID
	tenant.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, typ, id, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *Service) Delete(ctx context.Context, typ tenantdomain.Type, id string) error {
	existing, err := s.repo.Get(ctx, typ, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return tenantdomain.ErrNotFound
	}
	return s.repo.Delete(ctx, typ, id)
}

// normalize applies boundary defaults so downstream billing math never sees
// missing or non-numeric values.
func (s *Service) normalize(typ tenantdomain.Type, req tenantdomain.CreateRequest) (*tenantdomain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, tenantdomain.ErrInvalidName
	}
	if len(req.SelectedSeats) > 0 && len(req.SelectedOffices) > 0 {
		return nil, tenantdomain.ErrTypeConflict
	}

	status := tenantdomain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if status != tenantdomain.StatusInactive {
		status = tenantdomain.StatusActive
	}

	billing := req.Billing
	billing.Rate = sanitizeFee(billing.Rate)
	billing.CusaFee = sanitizeFee(billing.CusaFee)
	billing.ParkingFee = sanitizeFee(billing.ParkingFee)
	billing.PenaltyFee = sanitizeFee(billing.PenaltyFee)
	billing.DamageFee = sanitizeFee(billing.DamageFee)
	billing.Currency = strings.ToUpper(strings.TrimSpace(billing.Currency))
	if billing.Currency != "USD" {
		billing.Currency = "PHP"
	}

	return &tenantdomain.Tenant{
		Name:            name,
		Company:         strings.TrimSpace(req.Company),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		Address:         strings.TrimSpace(req.Address),
		Status:          status,
		SelectedSeats:   req.SelectedSeats,
		SelectedOffices: req.SelectedOffices,
		Billing:         billing,
	}, nil
}

func sanitizeFee(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
