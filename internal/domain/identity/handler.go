package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prjwlhere/hospital-management-system/internal/platform/apperr"
	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
)

// Revoker ends a token's life early when a revocation backend is configured.
type Revoker interface {
	Revoke(ctx context.Context, claims *auth.Claims) error
	Stateless() bool
}

type Handler struct {
	svc     *Service
	revoker Revoker
}

func NewHandler(svc *Service, revoker Revoker) *Handler {
	return &Handler{svc: svc, revoker: revoker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/profile", h.GetProfile)
	api.PUT("/auth/profile", h.UpdateProfile)

	api.GET("/doctors/me/profile", h.GetDoctorProfile)
	api.PUT("/doctors/me/profile", h.UpdateDoctorProfile)
	api.GET("/patients/me/profile", h.GetPatientProfile)
	api.PUT("/patients/me/profile", h.UpdatePatientProfile)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

type loginResponse struct {
	Token       string      `json:"token"`
	AccessToken string      `json:"access_token"`
	ExpiresAt   string      `json:"expires_at"`
	User        userSummary `json:"user"`
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := h.svc.Register(c.Request().Context(), in); err != nil {
		// registration has always answered duplicates with 400
		return apperr.HTTPWithStatus(err, apperr.KindConflict, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "Patient registered successfully"})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cred, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, loginResponse{
		Token:       cred.Token,
		AccessToken: cred.Token,
		ExpiresAt:   cred.ExpiresAt.UTC().Format(time.RFC3339),
		User: userSummary{
			ID:       cred.Account.ID.String(),
			Username: cred.Account.Username,
			Role:     cred.Account.Role,
			Email:    cred.Account.Email,
		},
	})
}

func (h *Handler) Logout(c echo.Context) error {
	claims, err := auth.RequireAnyRole(c, auth.RoleAdmin, auth.RoleDoctor, auth.RolePatient)
	if err != nil {
		return apperr.HTTP(err)
	}
	if h.revoker == nil || h.revoker.Stateless() {
		return c.JSON(http.StatusOK, map[string]string{"message": "Logout successful. Discard token client-side"})
	}
	if err := h.revoker.Revoke(c.Request().Context(), claims); err != nil {
		return apperr.HTTP(apperr.Internal(err, "revoke token"))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logout successful. Token revoked"})
}

// GetProfile reports username, role and is_active from the token claims and
// the remaining fields from the live row.
func (h *Handler) GetProfile(c echo.Context) error {
	acct, err := auth.RequireAuthenticatedAccount(c, h.svc.GetAccount)
	if err != nil {
		return apperr.HTTP(err)
	}
	claims := auth.ClaimsFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":        acct.ID,
		"username":  claims.Username,
		"email":     acct.Email,
		"role":      claims.Role,
		"full_name": acct.FullName,
		"phone":     acct.Phone,
		"is_active": claims.IsActive,
	})
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	acct, err := auth.RequireAuthenticatedAccount(c, h.svc.GetAccount)
	if err != nil {
		return apperr.HTTP(err)
	}
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if _, err := h.svc.UpdateProfile(c.Request().Context(), acct.ID, upd); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

func (h *Handler) GetDoctorProfile(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor)
	if err != nil {
		return apperr.HTTP(err)
	}
	p, err := h.svc.GetDoctorProfile(c.Request().Context(), actor.AccountID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateDoctorProfile(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RoleDoctor)
	if err != nil {
		return apperr.HTTP(err)
	}
	var upd DoctorProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.UpdateDoctorProfile(c.Request().Context(), actor.AccountID, upd)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatientProfile(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RolePatient)
	if err != nil {
		return apperr.HTTP(err)
	}
	p, err := h.svc.GetPatientProfile(c.Request().Context(), actor.AccountID)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatientProfile(c echo.Context) error {
	actor, err := auth.RequireActor(c, auth.RolePatient)
	if err != nil {
		return apperr.HTTP(err)
	}
	var upd PatientProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.UpdatePatientProfile(c.Request().Context(), actor.AccountID, upd)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}
