package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/branch-workshop/service-booking/internal/application"
	"github.com/branch-workshop/service-booking/internal/common/auth"
	"github.com/branch-workshop/service-booking/internal/common/domain"
	"github.com/branch-workshop/service-booking/internal/common/middleware"
	"github.com/branch-workshop/service-booking/internal/common/response"
)

// BookingService is the subset of the application service the HTTP layer drives.
type BookingService interface {
	CreateBooking(ctx context.Context, req application.CreateBookingRequest) (*application.BookingDTO, error)
	UpdateBooking(ctx context.Context, id uuid.UUID, req application.UpdateBookingRequest) (*application.BookingDTO, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*application.BookingDTO, error)
	ListBookings(ctx context.Context, query application.ListBookingsQuery) (*domain.PaginatedResult[application.BookingDTO], error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error
	GetHistory(ctx context.Context, id uuid.UUID) ([]application.ProcessEventDTO, error)
	ListStoppageReasons(ctx context.Context) ([]application.StoppageReasonDTO, error)
	GetBookingStats(ctx context.Context) (*application.BookingStatsDTO, error)
}

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, verifier *auth.JWTVerifier) {
	authMW := middleware.AuthMiddleware(verifier)
	frontDesk := middleware.RequireRole(auth.RoleAdmin, auth.RoleServiceAdvisor)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", frontDesk, h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/stoppage-reasons", h.ListStoppageReasons)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id", h.UpdateBooking)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.GET("/:id/history", h.GetHistory)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessage(err))
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var query application.ListBookingsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, bindingMessage(err))
		return
	}

	result, err := h.service.ListBookings(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateBooking handles PATCH and PUT /api/v1/bookings/:id.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	var req application.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessage(err))
		return
	}

	result, err := h.service.UpdateBooking(c.Request.Context(), bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetHistory handles GET /api/v1/bookings/:id/history.
func (h *BookingHandler) GetHistory(c *gin.Context) {
	bookingID, ok := parseBookingID(c)
	if !ok {
		return
	}

	history, err := h.service.GetHistory(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, history)
}

// ListStoppageReasons handles GET /api/v1/bookings/stoppage-reasons.
func (h *BookingHandler) ListStoppageReasons(c *gin.Context) {
	reasons, err := h.service.ListStoppageReasons(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, reasons)
}

func parseBookingID(c *gin.Context) (uuid.UUID, bool) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, false
	}
	return bookingID, true
}
