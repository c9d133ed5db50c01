package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/h2ledger/h2ledger/internal/config"
)

var otpPattern = regexp.MustCompile(`\(OTP\) is: (\d{6})`)

// logSink captures structured log output so tests can read the OTP code the
// development mailer writes instead of sending.
type logSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) lastOTP(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	matches := otpPattern.FindAllStringSubmatch(s.buf.String(), -1)
	if len(matches) == 0 {
		t.Fatalf("no OTP found in log output")
	}
	return matches[len(matches)-1][1]
}

func testConfig() config.Config {
	return config.Config{
		AppName:        "H2Ledger",
		AppEnv:         "development",
		Port:           "8080",
		SessionSecret:  "test-secret",
		SessionTTL:     12 * time.Hour,
		OTPTTL:         5 * time.Minute,
		LedgerTimeout:  90 * time.Second,
		IdempotencyTTL: 24 * time.Hour,
		AdminPANs:      []string{"KLMNO9012P"},
	}
}

func newTestApp(t *testing.T) (*fiber.App, *logSink) {
	t.Helper()
	sink := &logSink{}
	logger := slog.New(slog.NewJSONHandler(sink, nil))

	app := fiber.New()
	if err := Setup(app, Deps{Cfg: testConfig(), Logger: logger}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app, sink
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any, decorate func(*http.Request)) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}
	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if decorate != nil {
		decorate(req)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp, decodeJSON(t, resp)
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 && json.Unmarshal(raw, &decoded) != nil {
		return map[string]any{"_raw": string(raw)}
	}
	return decoded
}

// login walks the two-phase OTP flow for the given dev company and returns a
// bearer token.
func login(t *testing.T, app *fiber.App, sink *logSink, pan, gst string) string {
	t.Helper()

	resp, body := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"pan": pan, "gst": gst}, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("challenge request status = %d, body %v", resp.StatusCode, body)
	}
	if body["status"] != "otp_sent" {
		t.Fatalf("challenge response = %v", body)
	}

	resp, body = postJSON(t, app, "/api/v1/auth/login", fiber.Map{"pan": pan, "gst": gst, "otp": sink.lastOTP(t)}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d, body %v", resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("no token in login response: %v", body)
	}
	return token
}

func authed(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
}

func TestLoginFlow(t *testing.T) {
	app, sink := newTestApp(t)

	token := login(t, app, sink, "ABCDE1234F", "22AAAAA0000A1Z5")

	req := httptest.NewRequest(fiber.MethodGet, "/dashboard", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if body["pan"] != "ABCDE1234F" {
		t.Fatalf("dashboard body = %v", body)
	}
}

func TestLoginRejectsUnknownCompany(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"pan": "ZZZZZ9999Z", "gst": "22AAAAA0000A1Z5"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestLoginRejectsWrongOTP(t *testing.T) {
	app, sink := newTestApp(t)

	resp, _ := postJSON(t, app, "/api/v1/auth/login", fiber.Map{"pan": "ABCDE1234F", "gst": "22AAAAA0000A1Z5"}, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("challenge request status = %d", resp.StatusCode)
	}

	code := sink.lastOTP(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	resp, _ = postJSON(t, app, "/api/v1/auth/login", fiber.Map{"pan": "ABCDE1234F", "gst": "22AAAAA0000A1Z5", "otp": wrong}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong otp status = %d, want 401", resp.StatusCode)
	}

	// The challenge survives the mismatch, so the real code still works.
	resp, _ = postJSON(t, app, "/api/v1/auth/login", fiber.Map{"pan": "ABCDE1234F", "gst": "22AAAAA0000A1Z5", "otp": code}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("correct otp after mismatch status = %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/api/v1/records", "/api/v1/wallet", "/api/v1/balance"} {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestBrowserRedirectsToLogin(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/dashboard", nil)
	req.Header.Set(fiber.HeaderAccept, "text/html")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("redirect location = %q", loc)
	}
}

func TestSubmitVerifyAndBalanceFlow(t *testing.T) {
	app, sink := newTestApp(t)

	producer := login(t, app, sink, "ABCDE1234F", "22AAAAA0000A1Z5")
	admin := login(t, app, sink, "KLMNO9012P", "11CCCCC0000C3Z7")

	// Producer submits a measurement.
	resp, body := postJSON(t, app, "/api/v1/records", fiber.Map{"hydrogen_kg": "10.5", "electricity_kwh": "500"}, authed(producer))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d, body %v", resp.StatusCode, body)
	}
	recordID, _ := body["id"].(string)
	if recordID == "" {
		t.Fatalf("submit response missing record id: %v", body)
	}

	// Admin sees it in the pending queue.
	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/admin/records/pending", nil)
	authed(admin)(req)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pending status = %d", resp.StatusCode)
	}

	// Admin verifies; the producer is credited.
	resp, body = postJSON(t, app, fmt.Sprintf("/api/v1/admin/records/%s/verify", recordID), fiber.Map{}, authed(admin))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d, body %v", resp.StatusCode, body)
	}

	// Producer's wallet reflects the credited quantity.
	req = httptest.NewRequest(fiber.MethodGet, "/api/v1/wallet", nil)
	authed(producer)(req)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	walletBody := decodeJSON(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wallet status = %d, body %v", resp.StatusCode, walletBody)
	}
	if walletBody["balance"] != "10.5" {
		t.Fatalf("wallet balance = %v, want 10.5", walletBody["balance"])
	}
}

func TestAdminRoutesForbiddenForProducers(t *testing.T) {
	app, sink := newTestApp(t)

	producer := login(t, app, sink, "ABCDE1234F", "22AAAAA0000A1Z5")

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/admin/records/pending", nil)
	authed(producer)(req)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}
