package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
)

func (s *Server) ProvisionPriceConfig(c *gin.Context) {
	var req domain.ProvisionPriceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tagModule(c, req.ServiceModule)

	cfg, err := s.governanceSvc.ProvisionPriceConfig(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": cfg})
}

func (s *Server) ListPriceConfigs(c *gin.Context) {
	configs, err := s.governanceSvc.ListPriceConfigs(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": configs})
}

func (s *Server) GetPriceConfig(c *gin.Context) {
	module := c.Param("module")
	tagModule(c, module)

	cfg, err := s.governanceSvc.GetPriceConfig(c.Request.Context(), module)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cfg})
}

func (s *Server) PreviewPriceConfigUpdate(c *gin.Context) {
	req, ok := bindPriceUpdate(c)
	if !ok {
		return
	}

	preview, err := s.governanceSvc.PreviewPriceConfigUpdate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": preview})
}

func (s *Server) UpdatePriceConfig(c *gin.Context) {
	req, ok := bindPriceUpdate(c)
	if !ok {
		return
	}

	cfg, err := s.governanceSvc.UpdatePriceConfig(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cfg})
}

func (s *Server) PreviewBreakdown(c *gin.Context) {
	var req domain.PreviewBreakdownRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, newValidationError("base_price", "invalid_base_price", "base_price must be a number"))
		return
	}
	req.ServiceModule = c.Param("module")
	tagModule(c, req.ServiceModule)

	preview, err := s.governanceSvc.PreviewBreakdown(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": preview})
}

func bindPriceUpdate(c *gin.Context) (domain.UpdatePriceConfigRequest, bool) {
	var req domain.UpdatePriceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return req, false
	}
	req.ServiceModule = c.Param("module")
	tagModule(c, req.ServiceModule)
	return req, true
}
