package reporting

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/apperr"
	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/statistics", h.AdminStats)
	admin.GET("/reports/financial", h.Financial)

	api.Group("/doctor", auth.RequireRole(auth.RoleDoctor)).GET("/dashboard", h.DoctorDashboard)
	api.Group("/patient", auth.RequireRole(auth.RolePatient)).GET("/dashboard", h.PatientDashboard)
	api.Group("/receptionist", auth.RequireRole(auth.RoleReceptionist)).GET("/dashboard", h.ReceptionistDashboard)
	api.Group("/pharmacist", auth.RequireRole(auth.RolePharmacist)).GET("/dashboard", h.PharmacistDashboard)
}

func (h *Handler) AdminStats(c echo.Context) error {
	stats, err := h.svc.AdminStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Financial(c echo.Context) error {
	var from, to time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.Validationf("invalid from date: %s", v)
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.Validationf("invalid to date: %s", v)
		}
		to = t
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return apperr.Validationf("report period ends before it starts")
	}
	report, err := h.svc.Financial(c.Request().Context(), from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) DoctorDashboard(c echo.Context) error {
	d, err := h.svc.DoctorDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) PatientDashboard(c echo.Context) error {
	d, err := h.svc.PatientDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ReceptionistDashboard(c echo.Context) error {
	d, err := h.svc.ReceptionistDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) PharmacistDashboard(c echo.Context) error {
	d, err := h.svc.PharmacistDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
