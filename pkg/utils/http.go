package utils

import (
	"errors"
	"net/http"

	"grocery-dispatch/internal/models"

	"github.com/labstack/echo/v4"
)

// HandleServiceError maps domain errors onto HTTP responses with their
// machine-readable codes. Coverage and transition failures carry enough
// context for the client to render a specific message; anything unknown
// degrades to a 500.
func HandleServiceError(c echo.Context, err error) error {
	var distErr *models.DistanceExceededError
	if errors.As(err, &distErr) {
		return c.JSON(http.StatusUnprocessableEntity, models.NewDistanceExceededResponse(distErr))
	}

	var transErr *models.TransitionError
	if errors.As(err, &transErr) {
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Code:    models.CodeInvalidTransition,
			Message: transErr.Error(),
		})
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Resource not found"})
	case errors.Is(err, models.ErrBranchNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Code:    models.CodeBranchNotFound,
			Message: "Branch not found",
		})
	case errors.Is(err, models.ErrInvalidLocation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.CodeInvalidLocation,
			Message: "Provide exactly one valid delivery coordinate or saved address",
		})
	case errors.Is(err, models.ErrOutOfCoverage):
		return c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Code:    models.CodeOutOfCoverage,
			Message: "No branch delivers to this location yet",
		})
	case errors.Is(err, models.ErrOrderAlreadyAssigned):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Code:    models.CodeInvalidTransition,
			Message: "Order was already taken by another delivery partner",
		})
	case errors.Is(err, models.ErrConflict):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Resource already exists"})
	case errors.Is(err, models.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid email or password"})
	}

	c.Logger().Error("unhandled service error: ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Something went wrong"})
}
