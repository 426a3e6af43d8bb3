package quotes

import (
	"net/http"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for delivery quotes and branch estimates.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new quote handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// GetDeliveryQuote handles POST /orders/quote.
func (h *Handler) GetDeliveryQuote(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.QuoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	quote, err := h.svc.Quote(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, quote)
}

// GetBranchEstimate handles POST /eta/estimate: coordinate in, nearest
// in-coverage branch and ETA out.
func (h *Handler) GetBranchEstimate(c echo.Context) error {
	var req models.EstimateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	estimate, err := h.svc.NearestEstimate(c.Request().Context(), models.GeoPoint{Latitude: req.Latitude, Longitude: req.Longitude})
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, estimate)
}
