package orders

import (
	"net/http"
	"strconv"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for orders.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new order handler.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

// CreateOrder handles POST /orders: the customer checkout call.
func (h *Handler) CreateOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	order, err := h.svc.Checkout(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ListMyOrders handles GET /orders.
func (h *Handler) ListMyOrders(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	page, limit := pageLimit(c)
	orders, total, err := h.svc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": total})
}

// GetOrderDetails handles GET /orders/:orderId — the authoritative fetch
// every tracking subscriber falls back to after a reconnect.
func (h *Handler) GetOrderDetails(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	order, err := h.svc.GetOrder(c.Request().Context(), c.Param("orderId"), Actor{ID: userID, Role: role})
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// CancelOrder handles PUT /orders/:orderId/cancel.
func (h *Handler) CancelOrder(c echo.Context) error {
	userID, role, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	order, err := h.svc.Cancel(c.Request().Context(), c.Param("orderId"), Actor{ID: userID, Role: role})
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListAvailableOrders handles GET /partner/orders: the open feed partners
// accept work from.
func (h *Handler) ListAvailableOrders(c echo.Context) error {
	if _, _, err := utils.ExtractUserInfo(c); err != nil {
		return err
	}

	orders, err := h.svc.ListAvailable(c.Request().Context())
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders})
}

type confirmRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// ConfirmOrder handles POST /partner/orders/:orderId/confirm. The partner's
// current coordinate travels with the acceptance.
func (h *Handler) ConfirmOrder(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	order, err := h.svc.Confirm(c.Request().Context(), c.Param("orderId"), userID, models.GeoPoint{Latitude: *req.Latitude, Longitude: *req.Longitude})
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles PUT /partner/orders/:orderId/status.
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.StatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	order, err := h.svc.UpdateStatus(c.Request().Context(), c.Param("orderId"), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func pageLimit(c echo.Context) (int, int) {
	page, limit := 1, 20
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	return page, limit
}
