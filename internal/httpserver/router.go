package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"calbook/internal/metrics"
	"calbook/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booker books one appointment from free text.
type Booker interface {
	Book(ctx context.Context, text string) (*models.Result, error)
}

// ReadyFunc reports whether the calendar backend is reachable. It may be nil.
type ReadyFunc func(ctx context.Context) error

type bookRequest struct {
	BookingRequest string `json:"booking_request" binding:"required"`
}

type bookResponse struct {
	Success       bool                         `json:"success"`
	Message       string                       `json:"message"`
	EventDetails  map[string]any               `json:"event_details"`
	ExtractedInfo *models.ExtractedAppointment `json:"extracted_info"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// NewRouter wires the booking endpoints.
func NewRouter(logger *slog.Logger, booker Booker, ready ReadyFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	h := &bookingHandler{booker: booker, logger: logger}
	r.POST("/", h.Book)
	r.POST("/book", h.Book)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if ready != nil {
			if err := ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type bookingHandler struct {
	booker Booker
	logger *slog.Logger
}

func (h *bookingHandler) Book(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Message: "booking_request is required"})
		return
	}

	res, err := h.booker.Book(c.Request.Context(), req.BookingRequest)
	if err != nil {
		kind := models.KindOf(err)
		c.JSON(statusFor(kind), errorResponse{Message: err.Error(), ErrorKind: string(kind)})
		return
	}

	c.JSON(http.StatusOK, bookResponse{
		Success:       true,
		Message:       res.Message,
		EventDetails:  res.EventDetails,
		ExtractedInfo: res.Extracted,
	})
}

func statusFor(kind models.Kind) int {
	switch kind {
	case models.KindValidation:
		return http.StatusUnprocessableEntity
	case models.KindExtraction, models.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(started)
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), elapsed)
		logger.Info("HTTP request", "method", c.Request.Method, "path", path, "status", status, "duration", elapsed)
	}
}
