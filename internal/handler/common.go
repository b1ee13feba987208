package handler // handler contains the HTTP layer: request binding, authorization and response mapping

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// fail writes the standard error envelope {success:false, message}.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{"success": false, "message": message})
}

// serverError logs the underlying error and writes a generic 500. Outside of
// production the error detail is echoed back to ease debugging; in
// production only the generic message leaves the process.
func serverError(c echo.Context, log *zap.Logger, msg string, err error, production bool) error {
	log.Error(msg, zap.Error(err), zap.String("path", c.Path()))
	if production {
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"message": "Server error",
		"error":   err.Error(),
	})
}

// parseIDParam parses the :id route parameter. Non-numeric values map to the
// same 400 the original API produced for malformed document ids.
func parseIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
