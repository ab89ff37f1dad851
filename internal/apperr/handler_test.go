package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/DjordjeVuckovic/news-highlight/internal/apperr"
)

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation error",
			err:        fmt.Errorf("bind: %w", apperr.NewValidation("article_text is required")),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"article_text is required","title":"validation error"}`,
		},
		{
			name:       "field validation error",
			err:        apperr.NewFieldValidation("article_text", "article_text is required"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"success":false,"error":"article_text is required","title":"validation error","field":"article_text"}`,
		},
		{
			name:       "echo http error",
			err:        echo.NewHTTPError(http.StatusNotFound, "not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"success":false,"error":"not found"}`,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("fan-out: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantBody:   `{"success":false,"error":"request timed out"}`,
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"success":false,"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			apperr.GlobalErrorHandler()(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
