package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	templatedomain "github.com/hubspaces/billing/internal/contracttemplate/domain"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
	"github.com/hubspaces/billing/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z]+)\s*\}\}`)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	TenantSvc tenantdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      repository.Repository[templatedomain.ContractTemplate]
	tenantSvc tenantdomain.Service
}

func NewService(p Params) templatedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("contracttemplate.service"),
		genID:     p.GenID,
		repo:      repository.ProvideStore[templatedomain.ContractTemplate](p.DB),
		tenantSvc: p.TenantSvc,
	}
}

func (s *Service) Create(ctx context.Context, req templatedomain.CreateRequest) (*templatedomain.ContractTemplate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, templatedomain.ErrInvalidName
	}
	body := req.Body
	if strings.TrimSpace(body) == "" {
		return nil, templatedomain.ErrInvalidBody
	}
	typ, err := tenantdomain.ParseType(req.TenantType)
	if err != nil {
		return nil, tenantdomain.ErrInvalidType
	}

	fileRef := strings.TrimSpace(req.FileRef)
	if fileRef == "" {
		fileRef = uuid.NewString()
	}

	tmpl := &templatedomain.ContractTemplate{
		ID:         s.genID.Generate(),
		Name:       name,
		TenantType: typ,
		Active:     false,
		FileRef:    fileRef,
		Body:       body,
	}
	if err := s.repo.Create(ctx, tmpl); err != nil {
		return nil, err
	}

	s.log.Info("contract template created",
		zap.String("template_id", tmpl.ID.String()),
		zap.String("tenant_type", string(typ)),
	)
	return tmpl, nil
}

func (s *Service) List(ctx context.Context, typ tenantdomain.Type) ([]templatedomain.ContractTemplate, error) {
	filter := &templatedomain.ContractTemplate{}
	if typ != "" {
		filter.TenantType = typ
	}

	items, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	templates := make([]templatedomain.ContractTemplate, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		templates = append(templates, *item)
	}
	return templates, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*templatedomain.ContractTemplate, error) {
	templateID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, templatedomain.ErrNotFound
	}

	tmpl, err := s.repo.FindOne(ctx, &templatedomain.ContractTemplate{ID: templateID})
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, templatedomain.ErrNotFound
	}
	return tmpl, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	tmpl, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, tmpl.ID.String())
}

// Activate deactivates every template of the target's tenant type, then
// activates the target, in one transaction. The invariant of at most one
// active template per type holds even if the second step fails.
func (s *Service) Activate(ctx context.Context, id string) (*templatedomain.ContractTemplate, error) {
	tmpl, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&templatedomain.ContractTemplate{}).
			Where("tenant_type = ?", tmpl.TenantType).
			Update("active", false).Error; err != nil {
			return err
		}
		return s.repo.WithTrx(tx).Update(ctx, tmpl.ID.String(), map[string]any{"active": true})
	})
	if err != nil {
		return nil, err
	}

	tmpl.Active = true
	s.log.Info("contract template activated",
		zap.String("template_id", tmpl.ID.String()),
		zap.String("tenant_type", string(tmpl.TenantType)),
	)
	return tmpl, nil
}

// Render substitutes tenant fields into the template body. Placeholders with
// no matching field are left untouched so a bad upload is visible in the
// output rather than silently blanked.
func (s *Service) Render(ctx context.Context, templateID string, typ tenantdomain.Type, tenantID string) (string, error) {
	tmpl, err := s.GetByID(ctx, templateID)
	if err != nil {
		return "", err
	}

	tenant, err := s.tenantSvc.Get(ctx, typ, tenantID)
	if err != nil {
		return "", err
	}

	values := placeholderValues(*tenant)
	rendered := placeholderPattern.ReplaceAllStringFunc(tmpl.Body, func(match string) string {
		key := strings.ToLower(placeholderPattern.FindStringSubmatch(match)[1])
		if value, ok := values[key]; ok {
			return value
		}
		return match
	})
	return rendered, nil
}

func placeholderValues(tenant tenantdomain.Tenant) map[string]string {
	values := map[string]string{
		"name":     tenant.Name,
		"company":  tenant.Company,
		"email":    tenant.Email,
		"phone":    tenant.Phone,
		"address":  tenant.Address,
		"plan":     tenant.Billing.Plan,
		"currency": tenant.Billing.Currency,
		"rate":     billingdomain.FormatAmount(tenant.Billing.Currency, tenant.Billing.Rate),
		"quantity": strconv.Itoa(tenant.Quantity()),
		"months":   strconv.Itoa(tenant.Billing.MonthsToAvail),
	}
	if tenant.Billing.StartDate != nil {
		values["startdate"] = tenant.Billing.StartDate.Format("January 2, 2006")
	}
	if tenant.Billing.BillingEnd != nil {
		values["enddate"] = tenant.Billing.BillingEnd.Format("January 2, 2006")
	}
	return values
}
