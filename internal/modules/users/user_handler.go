package users

import (
	"net/http"

	"grocery-dispatch/internal/models"
	"grocery-dispatch/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for accounts and saved addresses.
type Handler struct {
	service  ServiceInterface
	validate *validator.Validate
}

// NewHandler creates a new user handler.
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}

	auth, err := h.service.Signup(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, auth)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}

	auth, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, auth)
}

// GetProfile handles GET /profile.
func (h *Handler) GetProfile(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListAddresses handles GET /profile/addresses.
func (h *Handler) ListAddresses(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	addresses, err := h.service.ListAddresses(c.Request().Context(), userID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, addresses)
}

// AddAddress handles POST /profile/addresses.
func (h *Handler) AddAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}

	var req models.AddAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}

	address, err := h.service.AddAddress(c.Request().Context(), userID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, address)
}

// UpdateAddress handles PATCH /profile/addresses/:addressId.
func (h *Handler) UpdateAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	addressID := c.Param("addressId")

	var req models.UpdateAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	address, err := h.service.UpdateAddress(c.Request().Context(), userID, addressID, req)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, address)
}

// DeleteAddress handles DELETE /profile/addresses/:addressId.
func (h *Handler) DeleteAddress(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	addressID := c.Param("addressId")

	if err := h.service.DeleteAddress(c.Request().Context(), userID, addressID); err != nil {
		return utils.HandleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
