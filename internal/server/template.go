package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	templatedomain "github.com/hubspaces/billing/internal/contracttemplate/domain"
	tenantdomain "github.com/hubspaces/billing/internal/tenant/domain"
)

func (s *Server) ListContractTemplates(c *gin.Context) {
	var typ tenantdomain.Type
	if raw := c.Query("type"); raw != "" {
		parsed, err := tenantdomain.ParseType(raw)
		if err != nil {
			AbortWithError(c, tenantdomain.ErrInvalidType)
			return
		}
		typ = parsed
	}

	templates, err := s.templateSvc.List(c.Request.Context(), typ)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": templates})
}

func (s *Server) CreateContractTemplate(c *gin.Context) {
	var req templatedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	template, err := s.templateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": template})
}

func (s *Server) ActivateContractTemplate(c *gin.Context) {
	template, err := s.templateSvc.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": template})
}

func (s *Server) RenderContractTemplate(c *gin.Context) {
	typ, err := tenantdomain.ParseType(c.Query("type"))
	if err != nil {
		AbortWithError(c, tenantdomain.ErrInvalidType)
		return
	}

	rendered, err := s.templateSvc.Render(c.Request.Context(), c.Param("id"), typ, c.Query("tenantId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rendered": rendered})
}

func (s *Server) DeleteContractTemplate(c *gin.Context) {
	if err := s.templateSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
