package catalog

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/specializations", h.ListSpecializations)
	api.POST("/specializations", h.CreateSpecialization)
	api.POST("/doctors/me/specializations", h.AddDoctorSpecialization)
	api.DELETE("/doctors/me/specializations/:id", h.RemoveDoctorSpecialization)
	api.GET("/doctors", h.ListDoctors)
}

func (h *Handler) ListSpecializations(c echo.Context) error {
	if _, err := auth.RequireActor(c); err != nil {
		return apperr.HTTP(err)
	}
	specs, err := h.svc.ListSpecializations(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, specs)
}

func (h *Handler) CreateSpecialization(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	var in SpecializationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	spec, err := h.svc.CreateSpecialization(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, spec)
}

func (h *Handler) AddDoctorSpecialization(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor)
	if err != nil {
		return apperr.HTTP(err)
	}
	var body struct {
		SpecializationID string `json:"specialization_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	specID, err := uuid.Parse(body.SpecializationID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "specialization_id must be a UUID")
	}
	link, err := h.svc.AddDoctorSpecialization(c.Request().Context(), actor.AccountID, specID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, link)
}

func (h *Handler) RemoveDoctorSpecialization(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor)
	if err != nil {
		return apperr.HTTP(err)
	}
	specID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RemoveDoctorSpecialization(c.Request().Context(), actor.AccountID, specID); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	if _, err := auth.RequireActor(c); err != nil {
		return apperr.HTTP(err)
	}
	docs, err := h.svc.ListDoctors(c.Request().Context(), c.QueryParam("specialization"))
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, docs)
}
