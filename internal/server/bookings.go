package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
)

func (s *Server) CreateBooking(c *gin.Context) {
	var req domain.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tagModule(c, req.ServiceModule)

	booking, err := s.governanceSvc.CreateBooking(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": booking})
}

func (s *Server) GetBooking(c *gin.Context) {
	booking, err := s.governanceSvc.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": booking})
}

func (s *Server) ListBookings(c *gin.Context) {
	var req domain.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	tagModule(c, req.ServiceModule)

	bookings, err := s.governanceSvc.ListBookings(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bookings})
}

func (s *Server) AssignProvider(c *gin.Context) {
	var req domain.AssignProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.BookingID = c.Param("id")

	booking, err := s.governanceSvc.AssignProvider(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": booking})
}

func (s *Server) AdvanceBooking(c *gin.Context) {
	var req domain.AdvanceBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.BookingID = c.Param("id")

	booking, err := s.governanceSvc.AdvanceBooking(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": booking})
}
