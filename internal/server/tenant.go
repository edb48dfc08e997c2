package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
)

func (s *Server) ListTenants(c *gin.Context) {
	typ, err := tenantdomain.ParseType(c.Param("type"))
	if err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidType)
		return
	}

	filter := tenantdomain.ListFilter{
		Status: tenantdomain.Status(strings.ToLower(strings.TrimSpace(c.Query("status")))),
	}

	tenants, err := s.tenantSvc.List(c.Request.Context(), typ, filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenants})
}

func (s *Server) GetTenant(c *gin.Context) {
	typ, err := tenantdomain.ParseType(c.Param("type"))
	if err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidType)
		return
	}

	tenant, err := s.tenantSvc.Get(c.Request.Context(), typ, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (s *Server) CreateTenant(c *gin.Context) {
	typ, err := tenantdomain.ParseType(c.Param("type"))
	if err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidType)
		return
	}

	var req tenantdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	tenant, err := s.tenantSvc.Create(c.Request.Context(), typ, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": tenant})
}

func (s *Server) UpdateTenant(c *gin.Context) {
	typ, err := tenantdomain.ParseType(c.Param("type"))
	if err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidType)
		return
	}

	var req tenantdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	tenant, err := s.tenantSvc.Update(c.Request.Context(), typ, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (s *Server) DeleteTenant(c *gin.Context) {
	typ, err := tenantdomain.ParseType(c.Param("type"))
	if err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidType)
		return
	}

	if err := s.tenantSvc.Delete(c.Request.Context(), typ, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
