package bookings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/middleware"
)

// Handler handles HTTP requests for bookings
type Handler struct {
	service *Service
}

// NewHandler creates a new bookings handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Reserve handles booking a seat
func (h *Handler) Reserve(c *gin.Context) {
	var req BookingRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	booking, err := h.service.Reserve(c.Request.Context(), req.RideID, req.PassengerID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to reserve seat")
		return
	}

	common.CreatedResponse(c, booking)
}

// Cancel handles cancelling a booking
func (h *Handler) Cancel(c *gin.Context) {
	var req BookingRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	booking, err := h.service.Cancel(c.Request.Context(), req.RideID, req.PassengerID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to cancel booking")
		return
	}

	common.SuccessResponse(c, booking)
}

// ListPassengers handles listing the passengers of a ride
func (h *Handler) ListPassengers(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	passengers, err := h.service.ListPassengers(c.Request.Context(), rideID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list passengers")
		return
	}

	common.SuccessResponse(c, passengers)
}

// ListUserBookings handles listing a passenger's bookings
func (h *Handler) ListUserBookings(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid user ID")
		return
	}

	bookings, err := h.service.ListBookingsByPassenger(c.Request.Context(), userID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to list bookings")
		return
	}

	common.SuccessResponse(c, bookings)
}

// RegisterRoutes registers booking routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/bookings", h.Reserve)
		api.PATCH("/bookings/cancel", h.Cancel)
		api.GET("/rides/:id/passengers", h.ListPassengers)
		api.GET("/users/:id/bookings", h.ListUserBookings)
	}
}
