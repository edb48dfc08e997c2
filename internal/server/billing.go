package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/hubspaces/billing/internal/billing/domain"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
)

type generateRequest struct {
	Month string `json:"month"`
}

type updateStatusRequest struct {
	Status         string `json:"status"`
	PaymentDetails string `json:"paymentDetails"`
}

func (s *Server) GenerateMonthlyBilling(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
			return
		}
	}

	report, err := s.billingSvc.GenerateMonthly(c.Request.Context(), req.Month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}

func (s *Server) GenerateTenantBilling(c *gin.Context) {
	typ, err := tenantdomain.ParseType(c.Param("type"))
	if err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidType)
		return
	}

	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
			return
		}
	}

	record, err := s.billingSvc.GenerateForTenant(c.Request.Context(), typ, strings.TrimSpace(c.Param("id")), req.Month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": record})
}

func (s *Server) ListBillingRecords(c *gin.Context) {
	req := billingdomain.ListRequest{
		Month:    strings.TrimSpace(c.Query("month")),
		Status:   billingdomain.Status(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		TenantID: strings.TrimSpace(c.Query("tenantId")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_request", "limit must be a non-negative integer"))
			return
		}
		req.Limit = limit
	}

	records, err := s.billingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}

func (s *Server) GetBillingRecord(c *gin.Context) {
	record, err := s.billingSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (s *Server) UpdateBillingStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	status := billingdomain.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	record, err := s.billingSvc.UpdateStatus(c.Request.Context(), c.Param("id"), status, req.PaymentDetails)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (s *Server) UpdateBillingFees(c *gin.Context) {
	var req billingdomain.UpdateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	record, err := s.billingSvc.UpdateFees(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (s *Server) SweepOverdueBilling(c *gin.Context) {
	transitioned, err := s.billingSvc.SweepOverdue(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"transitioned": transitioned, "count": len(transitioned)}})
}

func (s *Server) GetBillingStatistics(c *gin.Context) {
	stats, err := s.billingSvc.Statistics(c.Request.Context(), strings.TrimSpace(c.Query("month")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}
