package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
)

func (s *Server) OpenDispute(c *gin.Context) {
	var req domain.OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dispute, err := s.governanceSvc.OpenDispute(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": dispute})
}

func (s *Server) GetDispute(c *gin.Context) {
	dispute, err := s.governanceSvc.GetDispute(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dispute})
}

func (s *Server) ListDisputes(c *gin.Context) {
	var req domain.ListDisputesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tagModule(c, req.ServiceModule)

	disputes, err := s.governanceSvc.ListDisputes(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": disputes})
}

func (s *Server) AssignDispute(c *gin.Context) {
	var req domain.AssignDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DisputeID = c.Param("id")

	dispute, err := s.governanceSvc.AssignDispute(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dispute})
}

func (s *Server) TransitionDispute(c *gin.Context) {
	var req domain.TransitionDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DisputeID = c.Param("id")

	dispute, err := s.governanceSvc.TransitionDispute(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dispute})
}

func (s *Server) ResolveDispute(c *gin.Context) {
	var req domain.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DisputeID = c.Param("id")

	dispute, err := s.governanceSvc.ResolveDispute(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dispute})
}

func (s *Server) EscalateDispute(c *gin.Context) {
	var req domain.EscalateDisputeRequest
	// an empty body escalates without a reason
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	req.DisputeID = c.Param("id")

	dispute, err := s.governanceSvc.EscalateDispute(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dispute})
}
