package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestStatus(t *testing.T) {
	if got := Status(Validationf("bad field")); got != http.StatusBadRequest {
		t.Errorf("validation: expected 400, got %d", got)
	}
	if got := Status(ErrAuthentication); got != http.StatusUnauthorized {
		t.Errorf("authentication: expected 401, got %d", got)
	}
	if got := Status(Forbiddenf("not yours")); got != http.StatusForbidden {
		t.Errorf("authorization: expected 403, got %d", got)
	}
	if got := Status(NotFoundf("bill %s", "x")); got != http.StatusNotFound {
		t.Errorf("not found: expected 404, got %d", got)
	}
	if got := Status(Conflictf("email taken")); got != http.StatusConflict {
		t.Errorf("conflict: expected 409, got %d", got)
	}
	if got := Status(fmt.Errorf("payment: %w", ErrInvalidPayment)); got != http.StatusBadRequest {
		t.Errorf("invalid payment: expected 400, got %d", got)
	}
	if got := Status(ErrInsufficientStock); got != http.StatusBadRequest {
		t.Errorf("insufficient stock: expected 400, got %d", got)
	}
	if got := Status(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("unknown: expected 500, got %d", got)
	}
}

func TestWrappedSentinelsSurviveFmtErrorf(t *testing.T) {
	err := fmt.Errorf("dispense prescription: %w", ErrInsufficientStock)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Error("expected wrapped error to match sentinel")
	}
}

func TestErrorHandler_SentinelError(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	e.HTTPErrorHandler(Validationf("quantity must be positive"), c)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quantity must be positive") {
		t.Errorf("expected error message in body, got %s", rec.Body.String())
	}
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	e.HTTPErrorHandler(errors.New("pq: connection refused"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("internal error detail leaked to client")
	}
}

func TestErrorHandler_EchoHTTPError(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	e.HTTPErrorHandler(echo.NewHTTPError(http.StatusUnauthorized, "invalid token"), c)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid token") {
		t.Errorf("expected message in body, got %s", rec.Body.String())
	}
}
