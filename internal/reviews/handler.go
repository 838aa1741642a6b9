package reviews

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/ride-sharing/pkg/common"
	"github.com/richxcame/ride-sharing/pkg/middleware"
)

// Handler handles HTTP requests for reviews
type Handler struct {
	service *Service
}

// NewHandler creates a new reviews handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SubmitReview handles a passenger rating a driver
func (h *Handler) SubmitReview(c *gin.Context) {
	var req SubmitReviewRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	review, err := h.service.SubmitReview(c.Request.Context(), &req)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to submit review")
		return
	}

	common.CreatedResponse(c, review)
}

// GetRideReviews handles listing the reviews of a ride
func (h *Handler) GetRideReviews(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	reviews, err := h.service.GetReviewsByRide(c.Request.Context(), rideID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get reviews")
		return
	}

	common.SuccessResponse(c, reviews)
}

// GetDriverReviews handles listing the reviews a driver received
func (h *Handler) GetDriverReviews(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver ID")
		return
	}

	reviews, err := h.service.GetReviewsByDriver(c.Request.Context(), driverID)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get reviews")
		return
	}

	common.SuccessResponse(c, reviews)
}

// RegisterRoutes registers review routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.POST("/reviews", h.SubmitReview)
		api.GET("/rides/:id/reviews", h.GetRideReviews)
		api.GET("/drivers/:id/reviews", h.GetDriverReviews)
	}
}
