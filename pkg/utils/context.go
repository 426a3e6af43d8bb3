package utils

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ExtractUserInfo pulls the authenticated identity out of the request
// context. The JWT middleware is responsible for setting these keys; a
// missing identity on a protected route is a server misconfiguration, but
// we still answer 401 rather than panic.
func ExtractUserInfo(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get("userID").(string)
	role, _ = c.Get("userRole").(string)
	if userID == "" {
		// Must be a real error so callers actually stop; writing the
		// response here would leave the handler running unauthenticated.
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication")
	}
	return userID, role, nil
}
