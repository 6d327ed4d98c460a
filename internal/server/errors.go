package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/carewatch/internal/db"
	"github.com/raphaelgruber/carewatch/internal/device"
	"github.com/raphaelgruber/carewatch/internal/ensemble"
	"github.com/raphaelgruber/carewatch/internal/monitor"
	"github.com/raphaelgruber/carewatch/internal/service"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidReminderType),
		errors.Is(err, service.ErrMissingColumn),
		errors.Is(err, monitor.ErrInvalidReading),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, db.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ensemble.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, device.ErrScanUnavailable),
		errors.Is(err, ensemble.ErrPredictorUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

// respondError writes err with its mapped status. Internal errors are not
// echoed to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, errorResponse{Error: "internal server error"})
		return
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

func abortWithError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}
