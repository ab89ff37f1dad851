package apperr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Title   string `json:"title,omitempty"`
	Field   string `json:"field,omitempty"`
}

func GlobalErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ve *ValidationError
		if errors.As(err, &ve) {
			_ = c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Message, Title: "validation error", Field: ve.Field})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := fmt.Sprintf("%v", he.Message)
			_ = c.JSON(he.Code, ErrorResponse{Error: msg})
			return
		}

		if errors.Is(err, context.DeadlineExceeded) {
			_ = c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"})
			return
		}

		slog.Error("Unhandled error", "error", err)
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
