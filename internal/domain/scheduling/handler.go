package scheduling

import (
	"net/http"
	"strconv"
	"strings"

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
	api.POST("/slots", h.DeclareSlot)
	api.GET("/doctors/:id/slots", h.ListSlots)
	api.PUT("/slots/:id/deactivate", h.DeactivateSlot)
	api.DELETE("/slots/:id", h.DeleteSlot)

	api.POST("/appointments", h.BookSlot)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.PUT("/appointments/:id/status", h.TransitionStatus)
	api.POST("/appointments/:id/cancel", h.Cancel)
	api.GET("/appointments/:id/history", h.History)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a UUID")
	}
	return &id, nil
}

func optionalDate(c echo.Context, name string) (*Date, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	d, err := ParseDate(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be YYYY-MM-DD")
	}
	return &d, nil
}

// -- Slots --

func (h *Handler) DeclareSlot(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor)
	if err != nil {
		return apperr.HTTP(err)
	}
	var in SlotInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	slot, err := h.svc.DeclareSlot(c.Request().Context(), actor.AccountID, in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, slot)
}

func (h *Handler) ListSlots(c echo.Context) error {
	if _, err := auth.RequireActor(c); err != nil {
		return apperr.HTTP(err)
	}
	doctorID, err := pathID(c)
	if err != nil {
		return err
	}
	q := SlotQuery{DoctorID: doctorID}
	if q.From, err = optionalDate(c, "from"); err != nil {
		return err
	}
	if q.To, err = optionalDate(c, "to"); err != nil {
		return err
	}
	if v := c.QueryParam("available"); v != "" {
		if q.OnlyAvailable, err = strconv.ParseBool(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "available must be true or false")
		}
	}

	slots, err := h.svc.ListSlots(c.Request().Context(), q)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, slots)
}

func (h *Handler) DeactivateSlot(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor, auth.RoleAdmin)
	if err != nil {
		return apperr.HTTP(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	slot, err := h.svc.DeactivateSlot(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor, auth.RoleAdmin)
	if err != nil {
		return apperr.HTTP(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSlot(c.Request().Context(), actor, id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Appointments --

func (h *Handler) BookSlot(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RolePatient)
	if err != nil {
		return apperr.HTTP(err)
	}
	var in BookingInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	slotID, err := uuid.Parse(strings.TrimSpace(in.AvailabilityID))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "availability_id must be a UUID")
	}
	appt, err := h.svc.BookSlot(c.Request().Context(), actor.AccountID, slotID, in.Reason)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	var f Filter
	if f.PatientID, err = optionalUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.DoctorID, err = optionalUUID(c, "doctor_id"); err != nil {
		return err
	}
	if v := c.QueryParam("status"); v != "" {
		st, ok := ParseStatus(v)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		f.Status = &st
	}

	pg := pagination.FromContext(c)
	appts, total, err := h.svc.ListAppointments(c.Request().Context(), actor, f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	appt, err := h.svc.GetAppointment(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) TransitionStatus(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor, auth.RolePatient, auth.RoleAdmin)
	if err != nil {
		return apperr.HTTP(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in TransitionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	appt, err := h.svc.TransitionStatus(c.Request().Context(), actor, id, in.Status, in.Note)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Cancel(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor, auth.RolePatient, auth.RoleAdmin)
	if err != nil {
		return apperr.HTTP(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var body struct {
		Note *string `json:"note"`
	}
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}
	appt, err := h.svc.Cancel(c.Request().Context(), actor, id, body.Note)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) History(c echo.Context) error {
	actor, err := auth.RequireActor(c)
	if err != nil {
		return apperr.HTTP(err)
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	entries, err := h.svc.History(c.Request().Context(), actor, id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, entries)
}
