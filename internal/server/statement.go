package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	"github.com/hubspaces/billing/internal/providers/pdf"
)

func (s *Server) DownloadBillingStatement(c *gin.Context) {
	record, err := s.billingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	issuer := s.ops.Get().StatementIssuer
	data := pdf.StatementData{
		IssuerName:      issuer.Name,
		IssuerAddress:   issuer.Address,
		IssuerEmail:     issuer.Email,
		StatementNumber: record.ID.String(),
		BillingMonth:    record.BillingMonth,
		IssueDate:       record.BillingDate.Format("January 2, 2006"),
		DueDate:         record.DueDate.Format("January 2, 2006"),
		Status:          string(record.Status),
		TenantName:      record.TenantName,
		Subtotal:        billingdomain.FormatAmount(record.Currency, record.Subtotal),
		VAT:             billingdomain.FormatAmount(record.Currency, record.VAT),
		Total:           billingdomain.FormatAmount(record.Currency, record.Total),
	}
	for _, item := range record.Items {
		data.Items = append(data.Items, pdf.StatementItem{
			Description: item.Description,
			Qty:         item.Quantity,
			UnitPrice:   billingdomain.FormatAmount(record.Currency, item.UnitPrice),
			Amount:      billingdomain.FormatAmount(record.Currency, item.Amount),
		})
	}

	reader, err := s.pdf.GenerateStatement(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="statement-`+record.BillingMonth+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
