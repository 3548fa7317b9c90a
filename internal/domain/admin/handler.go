package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prjwlhere/hospital-management-system/internal/domain/identity"
	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/pkg/pagination"
)

// Accounts is the slice of identity.Service the admin surface needs.
type Accounts interface {
	Counts(ctx context.Context) (identity.Counts, error)
	ListAccounts(ctx context.Context, role string, limit, offset int) ([]*identity.Account, int, error)
	CreateDoctor(ctx context.Context, in identity.DoctorInput) (*identity.Account, *identity.DoctorProfile, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*identity.Account, error)
	SetBlacklisted(ctx context.Context, id uuid.UUID, blacklisted bool) (*identity.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	accounts Accounts
}

func NewHandler(accounts Accounts) *Handler {
	return &Handler{accounts: accounts}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/admin")
	g.GET("/dashboard", h.Dashboard)
	g.GET("/users", h.ListUsers)
	g.POST("/doctors", h.CreateDoctor)
	g.PUT("/users/:id/active", h.SetActive)
	g.PUT("/users/:id/blacklist", h.SetBlacklisted)
	g.DELETE("/users/:id", h.DeleteUser)
}

type doctorResponse struct {
	User    *identity.Account       `json:"user"`
	Profile *identity.DoctorProfile `json:"profile"`
}

func (h *Handler) Dashboard(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	counts, err := h.accounts.Counts(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, counts)
}

func (h *Handler) ListUsers(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	pg := pagination.FromContext(c)
	role := strings.TrimSpace(c.QueryParam("role"))
	users, total, err := h.accounts.ListAccounts(c.Request().Context(), role, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg))
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	var in identity.DoctorInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	acct, profile, err := h.accounts.CreateDoctor(c.Request().Context(), in)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, doctorResponse{User: acct, Profile: profile})
}

func (h *Handler) SetActive(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil || body.IsActive == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "is_active is required")
	}
	acct, err := h.accounts.SetActive(c.Request().Context(), id, *body.IsActive)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, acct)
}

func (h *Handler) SetBlacklisted(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Blacklisted *bool `json:"blacklisted"`
	}
	if err := c.Bind(&body); err != nil || body.Blacklisted == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "blacklisted is required")
	}
	acct, err := h.accounts.SetBlacklisted(c.Request().Context(), id, *body.Blacklisted)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, acct)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if _, err := auth.RequireRole(c, auth.RoleAdmin); err != nil {
		return apperr.HTTP(err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.accounts.DeleteAccount(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
