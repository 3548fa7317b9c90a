package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prjwlhere/hospital-management-system/internal/platform/auth"
)

func runAudit(t *testing.T, method, path string, claims *auth.Claims, rec AuditRecorder) (*bytes.Buffer, []AuditEntry) {
	t.Helper()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var entries []AuditEntry
	recorders := []AuditRecorder{AuditRecorderFunc(func(e AuditEntry) error {
		entries = append(entries, e)
		return nil
	})}
	if rec != nil {
		recorders = append(recorders, rec)
	}

	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("request_id", "req-1")

	h := Audit(logger, "/api", recorders...)(func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &buf, entries
}

func TestAudit_RecordsMutation(t *testing.T) {
	claims := &auth.Claims{Role: auth.RoleDoctor}
	claims.Subject = uuid.NewString()

	buf, entries := runAudit(t, http.MethodPost, "/api/treatments", claims, nil)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.UserID != claims.Subject || got.Role != auth.RoleDoctor {
		t.Errorf("unexpected actor: %+v", got)
	}
	if got.Resource != "treatments" || got.Action != "create" || got.StatusCode != http.StatusCreated {
		t.Errorf("unexpected entry: %+v", got)
	}
	if got.RequestID != "req-1" {
		t.Errorf("expected request id propagated, got %q", got.RequestID)
	}

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if line["type"] != "audit" || line["resource"] != "treatments" {
		t.Errorf("unexpected log line %v", line)
	}
}

func TestAudit_SkipsReads(t *testing.T) {
	buf, entries := runAudit(t, http.MethodGet, "/api/appointments", nil, nil)
	if len(entries) != 0 || buf.Len() != 0 {
		t.Errorf("GET must not be audited, got %d entries", len(entries))
	}
}

func TestAudit_SkipsOutsidePrefix(t *testing.T) {
	_, entries := runAudit(t, http.MethodPost, "/metrics", nil, nil)
	if len(entries) != 0 {
		t.Errorf("expected no entries outside the api prefix, got %d", len(entries))
	}
}

func TestAudit_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	failing := AuditRecorderFunc(func(AuditEntry) error { return errors.New("disk full") })
	buf, entries := runAudit(t, http.MethodDelete, "/api/admin/users/1", nil, failing)
	if len(entries) != 1 {
		t.Fatalf("expected first recorder to still run, got %d", len(entries))
	}
	if !bytes.Contains(buf.Bytes(), []byte("failed to record audit entry")) {
		t.Error("expected recorder failure to be logged")
	}
}

func TestMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
		http.MethodGet:    "read",
	}
	for method, want := range tests {
		if got := methodToAction(method); got != want {
			t.Errorf("methodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

func TestExtractResource(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/appointments", "appointments"},
		{"/api/appointments/42/status", "appointments"},
		{"/api/admin/users/3/blacklist", "admin"},
		{"/api/", "unknown"},
	}
	for _, tt := range tests {
		if got := extractResource(tt.path, "/api/"); got != tt.want {
			t.Errorf("extractResource(%s) = %s, want %s", tt.path, got, tt.want)
		}
	}
}
