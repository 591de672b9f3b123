package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
)

func (s *Server) RequestPayout(c *gin.Context) {
	var req domain.RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tagModule(c, req.ServiceModule)

	payout, err := s.governanceSvc.RequestPayout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": payout})
}

func (s *Server) GetPayout(c *gin.Context) {
	payout, err := s.governanceSvc.GetPayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payout})
}

func (s *Server) ListPayouts(c *gin.Context) {
	var req domain.ListPayoutsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tagModule(c, req.ServiceModule)

	payouts, err := s.governanceSvc.ListPayouts(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payouts})
}

func (s *Server) PreviewPayoutDecision(c *gin.Context) {
	var req domain.PreviewPayoutDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.PayoutID = c.Param("id")

	summary, err := s.governanceSvc.PreviewPayoutDecision(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) DecidePayout(c *gin.Context) {
	var req domain.DecidePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.PayoutID = c.Param("id")

	payout, err := s.governanceSvc.DecidePayout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payout})
}
