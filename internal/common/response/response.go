package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
)

// Envelope is the body of every JSON response:
// { "status": HTTP_CODE, "message": "Feedback", "data": ... }
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func JSON(c echo.Context, code int, message string, data interface{}) error {
	return c.JSON(code, Envelope{Status: code, Message: message, Data: data})
}

// StatusOf maps an application error to its HTTP status code.
func StatusOf(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	}
	if apperrors.IsTimeout(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error writes err as an envelope. Server side failures are logged with
// their cause and answered with a generic message.
func Error(c echo.Context, err error) error {
	code := StatusOf(err)
	message := apperrors.Message(err)
	if code >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
		message = http.StatusText(code)
	}
	return JSON(c, code, message, nil)
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// echo binding errors, panics caught by Recover) in the same envelope.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		_ = JSON(c, he.Code, message, nil)
		return
	}
	_ = Error(c, err)
}
