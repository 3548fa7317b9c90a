package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
	"github.com/prjwlhere/hospital-management-system/pkg/pagination"
)

func newContext(e *echo.Echo, method, target, body, role string, account uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if role != "" {
		claims := &auth.Claims{Role: role, IsActive: true}
		claims.Subject = account.String()
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T (%v)", err, err)
	}
	return he.Code
}

func TestHandler_CreateAndRead(t *testing.T) {
	repo := newMockRepo()
	h, e := NewHandler(NewService(repo)), echo.New()
	user := repo.addUser()

	body := `{"user_id":"` + user.String() + `","type":"lab_ready","payload":{"lab":"cbc"}}`
	c, _ := newContext(e, http.MethodPost, "/notifications", body, auth.RolePatient, user)
	if got := statusOf(t, h.Create(c)); got != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", got)
	}

	c, rec := newContext(e, http.MethodPost, "/notifications", body, auth.RoleAdmin, uuid.New())
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var n Notification
	_ = json.Unmarshal(rec.Body.Bytes(), &n)

	c, rec = newContext(e, http.MethodGet, "/notifications?unread=true", "", auth.RolePatient, user)
	if err := h.List(c); err != nil {
		t.Fatal(err)
	}
	var page pagination.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &page)
	if page.Total != 1 {
		t.Errorf("expected 1 unread, got %d", page.Total)
	}

	c, _ = newContext(e, http.MethodPut, "/", "", auth.RolePatient, uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	if got := statusOf(t, h.MarkRead(c)); got != http.StatusForbidden {
		t.Errorf("expected 403 for stranger, got %d", got)
	}

	c, rec = newContext(e, http.MethodPut, "/", "", auth.RolePatient, user)
	c.SetParamNames("id")
	c.SetParamValues(n.ID.String())
	if err := h.MarkRead(c); err != nil {
		t.Fatal(err)
	}
	var read Notification
	_ = json.Unmarshal(rec.Body.Bytes(), &read)
	if !read.IsRead {
		t.Error("expected is_read true")
	}
}
