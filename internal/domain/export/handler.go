package export

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/exports", h.RequestExport)
	api.GET("/exports", h.ListJobs)
	api.GET("/exports/:id", h.GetJob)
	api.PUT("/exports/:id/status", h.UpdateJobStatus)

	api.GET("/reports/monthly", h.ListMonthlyReports)
	api.PUT("/reports/monthly", h.UpsertMonthlyReport)
}

func (h *Handler) RequestExport(c echo.Context) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	var in JobInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	j, err := h.svc.RequestExport(c.Request().Context(), actor.AccountID, in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusAccepted, j)
}

func (h *Handler) ListJobs(c echo.Context) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	pg := pagination.FromContext(c)
	jobs, total, err := h.svc.ListJobs(c.Request().Context(), actor.AccountID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(jobs, total, pg))
}

func (h *Handler) GetJob(c echo.Context) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	j, err := h.svc.GetJob(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, j)
}

func (h *Handler) UpdateJobStatus(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in JobStatusInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	j, err := h.svc.UpdateJobStatus(c.Request().Context(), id, in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, j)
}

// ListMonthlyReports returns the calling doctor's reports. Admins pick the
// doctor with ?doctor_id=.
func (h *Handler) ListMonthlyReports(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor, auth.RoleAdmin)
	if err != nil {
		return apperr.HTTP(err)
	}
	ctx := c.Request().Context()
	if !actor.IsAdmin() {
		out, err := h.svc.ListOwnMonthlyReports(ctx, actor.AccountID)
		if err != nil {
			return apperr.HTTP(err)
		}
		return c.JSON(http.StatusOK, out)
	}
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id must be a UUID")
	}
	out, err := h.svc.ListMonthlyReports(ctx, doctorID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) UpsertMonthlyReport(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	var in ReportInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.UpsertMonthlyReport(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, m)
}
