package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"fleet-console/internal/auth"
	"fleet-console/internal/hub"
	"fleet-console/internal/notify"
	"fleet-console/internal/perf"
	"fleet-console/internal/rtdb"
	"fleet-console/internal/view"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newTestRouter(t *testing.T) (*gin.Engine, *rtdb.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := rtdb.NewMemoryWithOptions(rtdb.Options{Now: fixedNow})
	notifier := notify.NewCenter()
	monitor := perf.NewMonitorWithOptions(notifier, perf.Options{
		Registerer: prometheus.NewRegistry(),
	})

	deps := Deps{
		Credentials: auth.Credentials{Username: "admin", Password: "secret"},
		TokenConfig: auth.TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "test"},
		Notifier:    notifier,
		Monitor:     monitor,
		Dashboard:   view.NewDashboardView(store, notifier, fixedNow),
		Machines:    view.NewMachinesView(store, notifier, fixedNow),
		Logs:        view.NewLogsView(store, notifier),
		Settings:    view.NewSettingsView(store, notifier, fixedNow),
		Download:    view.NewDownloadView(store, notifier, fixedNow),
		Hub:         hub.New(),
	}
	return NewRouter(deps), store
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"username": "admin", "password": "secret"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("missing token in %s", w.Body.String())
	}
	return token
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t)
	body, _ := json.Marshal(map[string]any{"username": "admin", "password": "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, path := range []string{"/v1/machines", "/v1/logs", "/v1/settings", "/v1/dashboard/summary"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestMachinesEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	heartbeat := testNow.Add(-time.Minute).Format(time.RFC3339)
	err := store.Write("machines/machine-001", map[string]any{
		"info":   map[string]any{"hostname": "acct-01"},
		"status": map[string]any{"last_heartbeat": heartbeat},
		"stats":  map[string]any{"files_processed": 42},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	token := login(t, r)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/machines?status=online", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Machines []struct {
			ID string `json:"id"`
		} `json:"machines"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Machines) != 1 || resp.Machines[0].ID != "machine-001" {
		t.Fatalf("unexpected machines: %s", w.Body.String())
	}
	if resp.Pagination.Total != 1 {
		t.Fatalf("expected total 1, got %d", resp.Pagination.Total)
	}
}

func TestUninstallEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	err := store.Write("machines/machine-001", map[string]any{
		"info": map[string]any{"hostname": "acct-01"},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	token := login(t, r)

	// Prime the view.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/machines", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}

	body, _ := json.Marshal(map[string]any{"reason": "retired"})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/machines/machine-001/uninstall", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	snap, err := store.ReadOnce("machines/machine-001/commands")
	if err != nil || !snap.Exists() {
		t.Fatalf("command not written: %v", err)
	}
}

func TestSettingsRoundTripAndValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	body, _ := json.Marshal(map[string]any{"heartbeatInterval": 600, "dashboardRefresh": 10})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body, _ = json.Marshal(map[string]any{"heartbeatInterval": 10, "dashboardRefresh": 10})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/v1/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("put invalid: expected 422, got %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var resp struct {
		Settings struct {
			HeartbeatInterval int `json:"heartbeatInterval"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Settings.HeartbeatInterval != 600 {
		t.Fatalf("invalid save leaked: %s", w.Body.String())
	}
}

func TestPerfMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	token := login(t, r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/perf/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPrometheusEndpointIsPublic(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
