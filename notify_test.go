package techpulse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// recordingMailer captures sent emails instead of delivering them.
type recordingMailer struct {
	mu   sync.Mutex
	sent []Email
	fail error
}

func (m *recordingMailer) Send(_ context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *recordingMailer) last() Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

func newTestApp(t *testing.T, mailer Mailer) *App {
	t.Helper()
	a := New(SiteConfig{
		Name:             "TechPulse",
		AdminPassword:    "secret",
		SessionSecret:    "secret",
		ContactRecipient: "owner@example.com",
	}, WithMailer(mailer))
	a.Store = setupTestStore(t)
	return a
}

func postJSON(handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestNewsletterSubscribe(t *testing.T) {
	mailer := &recordingMailer{}
	a := newTestApp(t, mailer)

	rec := postJSON(a.handleNewsletterSubscribe, `{"email":"reader@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["message"] != "Successfully subscribed to newsletter" {
		t.Errorf("message = %v", body["message"])
	}

	if mailer.count() != 1 {
		t.Fatalf("sent = %d emails, want 1", mailer.count())
	}
	sent := mailer.last()
	if len(sent.To) != 1 || sent.To[0] != "reader@example.com" {
		t.Errorf("To = %v, want the subscriber", sent.To)
	}
	if !strings.Contains(sent.Subject, "Welcome") {
		t.Errorf("Subject = %q, want a welcome subject", sent.Subject)
	}
}

func TestNewsletterSubscribeMissingEmail(t *testing.T) {
	mailer := &recordingMailer{}
	a := newTestApp(t, mailer)

	rec := postJSON(a.handleNewsletterSubscribe, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Email is required" {
		t.Errorf("error = %v, want %q", body["error"], "Email is required")
	}
	if mailer.count() != 0 {
		t.Errorf("sent = %d emails, want 0", mailer.count())
	}
}

func TestNewsletterSubscribeInvalidEmail(t *testing.T) {
	mailer := &recordingMailer{}
	a := newTestApp(t, mailer)

	for _, bad := range []string{"not-an-email", "x@y", "a b@c.com"} {
		rec := postJSON(a.handleNewsletterSubscribe, `{"email":"`+bad+`"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status for %q = %d, want 400", bad, rec.Code)
			continue
		}
		if body := decodeBody(t, rec); body["error"] != "Invalid email format" {
			t.Errorf("error for %q = %v, want %q", bad, body["error"], "Invalid email format")
		}
	}
	if mailer.count() != 0 {
		t.Errorf("sent = %d emails, want 0", mailer.count())
	}
}

func TestNewsletterSubscribeDeliveryFailure(t *testing.T) {
	mailer := &recordingMailer{fail: errors.New("relay down")}
	a := newTestApp(t, mailer)

	rec := postJSON(a.handleNewsletterSubscribe, `{"email":"reader@example.com"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Failed to subscribe to newsletter" {
		t.Errorf("error = %v", body["error"])
	}
	if body["details"] != "relay down" {
		t.Errorf("details = %v, want relay down", body["details"])
	}
}

func TestNewsletterSubscribeMethodNotAllowed(t *testing.T) {
	mailer := &recordingMailer{}
	a := newTestApp(t, mailer)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := a.handleNewsletterSubscribe(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

const validContactBody = `{
	"company": "Acme",
	"firstName": "Jane",
	"lastName": "Doe",
	"email": "jane@acme.example",
	"phone": "+254700000000",
	"message": "We would like to partner.",
	"inquiryType": "Partnership"
}`

func TestContactSend(t *testing.T) {
	mailer := &recordingMailer{}
	a := newTestApp(t, mailer)

	rec := postJSON(a.handleContactSend, validContactBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}

	if mailer.count() != 1 {
		t.Fatalf("sent = %d emails, want 1", mailer.count())
	}
	sent := mailer.last()
	if sent.Subject != "New Partnership inquiry from Acme" {
		t.Errorf("Subject = %q", sent.Subject)
	}
	if len(sent.To) != 1 || sent.To[0] != "owner@example.com" {
		t.Errorf("To = %v, want the configured recipient", sent.To)
	}
	if !strings.Contains(sent.HTML, "Jane Doe") {
		t.Errorf("body should carry the full name: %s", sent.HTML)
	}

	// The submission is stored for follow-up.
	var n int
	if err := a.Store.db.QueryRow(`SELECT COUNT(*) FROM contact_submissions WHERE full_name = ?`, "Jane Doe").Scan(&n); err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if n != 1 {
		t.Errorf("stored submissions = %d, want 1", n)
	}
}

func TestContactSendMissingFields(t *testing.T) {
	mailer := &recordingMailer{}
	a := newTestApp(t, mailer)

	rec := postJSON(a.handleContactSend, `{"company":"Acme","firstName":"Jane"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "All fields are required" {
		t.Errorf("error = %v, want %q", body["error"], "All fields are required")
	}
	if mailer.count() != 0 {
		t.Errorf("sent = %d emails, want 0", mailer.count())
	}
}

func TestContactSendDeliveryFailure(t *testing.T) {
	mailer := &recordingMailer{fail: errors.New("relay down")}
	a := newTestApp(t, mailer)

	rec := postJSON(a.handleContactSend, validContactBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "relay down" {
		t.Errorf("error = %v, want the delivery error", body["error"])
	}
}
