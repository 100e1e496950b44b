package inventory

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/validate"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validate.New()
	return e
}

func TestHandler_Create(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	e := newTestEcho()

	body := `{"name":"Paracetamol 500mg","category":"medicine","quantity":100,"unit":"tablet","unit_price":1.5,"cost":0.8}`
	req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"reorder_level":10`) {
		t.Errorf("expected default reorder level in response: %s", rec.Body.String())
	}
}

func TestHandler_Create_MissingUnit(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	e := newTestEcho()

	body := `{"name":"Paracetamol","category":"medicine","quantity":100,"unit_price":1.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/inventory", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandler_AdjustStock(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Ibuprofen", 20, 5)
	h := NewHandler(svc)
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodPatch, "/api/inventory/"+item.ID.String()+"/stock",
		strings.NewReader(`{"operation":"subtract","amount":5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())

	if err := h.AdjustStock(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"quantity":15`) {
		t.Errorf("expected updated quantity in response: %s", rec.Body.String())
	}
}

func TestHandler_AdjustStock_Insufficient(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Amoxicillin", 3, 5)
	h := NewHandler(svc)
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodPatch, "/api/inventory/"+item.ID.String()+"/stock",
		strings.NewReader(`{"operation":"subtract","amount":10}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())

	if err := h.AdjustStock(c); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestHandler_AdjustStock_BadOperation(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "Syringe", 10, 2)
	h := NewHandler(svc)
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodPatch, "/api/inventory/"+item.ID.String()+"/stock",
		strings.NewReader(`{"operation":"set","amount":5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())

	if err := h.AdjustStock(c); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc)
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Get(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_LowStockAlerts(t *testing.T) {
	svc, _ := newTestService()
	seedItem(t, svc, "Plenty", 100, 10)
	seedItem(t, svc, "Scarce", 4, 10)
	h := NewHandler(svc)
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/alerts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.LowStockAlerts(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("expected one alert: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Scarce") {
		t.Errorf("expected low item in response: %s", rec.Body.String())
	}
}
