package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dmchat/internal/configs"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/resp"
)

func testDeps() *AppDeps {
	return &AppDeps{
		Config: &configs.AppConfig{
			Environment: "development",
			JWTSecret:   "unit-test-secret",
		},
	}
}

func postSession(t *testing.T, deps *AppDeps, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	HandleCreateSession(deps)(w, r)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) resp.JSONResponse {
	t.Helper()
	var envelope resp.JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response envelope: %v", err)
	}
	return envelope
}

func TestHandleCreateSession_SetsCookieAndReturnsToken(t *testing.T) {
	deps := testDeps()
	w := postSession(t, deps, `{"email":"a@example.com","name":"Alice","photo":"https://example.com/a.png"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	envelope := decodeEnvelope(t, w)
	if envelope.Code != 0 {
		t.Fatalf("expected success envelope, got code %d (%s)", envelope.Code, envelope.Message)
	}

	data := envelope.Data.(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("expected a token in the response body")
	}

	payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
	if err != nil {
		t.Fatalf("returned token does not parse: %v", err)
	}
	if payload.Email != "a@example.com" || payload.Name != "Alice" {
		t.Errorf("unexpected token payload: %+v", payload)
	}

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == jwt.SessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected a session cookie to be set")
	}
	if !session.HttpOnly {
		t.Error("session cookie must be HTTP-only")
	}
	if session.Value != token {
		t.Error("cookie value must match the returned token")
	}
	if session.Secure {
		t.Error("cookie must not be Secure in development")
	}
}

func TestHandleCreateSession_RejectsBadProfiles(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "invalid email", body: `{"email":"not-an-email","name":"Alice"}`, wantCode: errs.ErrInvalidParams},
		{name: "missing name", body: `{"email":"a@example.com"}`, wantCode: errs.ErrInvalidParams},
		{name: "unknown field", body: `{"email":"a@example.com","name":"Alice","admin":true}`, wantCode: errs.ErrInvalidJSONFormat},
		{name: "malformed json", body: `{"email":`, wantCode: errs.ErrInvalidJSONFormat},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postSession(t, testDeps(), tc.body)
			envelope := decodeEnvelope(t, w)
			if envelope.Code != tc.wantCode {
				t.Errorf("expected business code %d, got %d (%s)", tc.wantCode, envelope.Code, envelope.Message)
			}
		})
	}
}

func TestHandleCreateSession_EnforcesDomainAllowList(t *testing.T) {
	deps := testDeps()
	deps.Config.AllowedEmailDomains = []string{"example.com"}

	w := postSession(t, deps, `{"email":"a@outsider.org","name":"Eve"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a disallowed domain, got %d", w.Code)
	}
	envelope := decodeEnvelope(t, w)
	if envelope.Code != errs.ErrEmailDomainNotAllowed {
		t.Errorf("expected business code %d, got %d", errs.ErrEmailDomainNotAllowed, envelope.Code)
	}

	w = postSession(t, deps, `{"email":"a@example.com","name":"Alice"}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for an allowed domain, got %d", w.Code)
	}
}

func TestHandleCreateSession_RejectsWrongContentType(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/session", strings.NewReader("email=a@example.com"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	HandleCreateSession(testDeps())(w, r)

	envelope := decodeEnvelope(t, w)
	if envelope.Code != errs.ErrUnsupportedMediaType {
		t.Errorf("expected business code %d, got %d", errs.ErrUnsupportedMediaType, envelope.Code)
	}
}

func TestHandleGetSession(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	ctx := context.WithValue(r.Context(), jwt.ContextAuthPayloadKey, &jwt.Payload{
		Email:  "a@example.com",
		Name:   "Alice",
		Avatar: "https://example.com/a.png",
	})
	w := httptest.NewRecorder()
	HandleGetSession(testDeps())(w, r.WithContext(ctx))

	envelope := decodeEnvelope(t, w)
	if envelope.Code != 0 {
		t.Fatalf("expected success, got code %d", envelope.Code)
	}
	data := envelope.Data.(map[string]any)
	if data["email"] != "a@example.com" || data["name"] != "Alice" {
		t.Errorf("unexpected session data: %v", data)
	}
}

func TestHandleGetSession_Anonymous(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	w := httptest.NewRecorder()
	HandleGetSession(testDeps())(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an anonymous caller, got %d", w.Code)
	}
}

func TestHandleDeleteSession_ClearsCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/api/session", nil)
	w := httptest.NewRecorder()
	HandleDeleteSession(testDeps())(w, r)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == jwt.SessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected the session cookie to be rewritten")
	}
	if session.MaxAge != -1 || session.Value != "" {
		t.Errorf("expected an expiring empty cookie, got MaxAge=%d Value=%q", session.MaxAge, session.Value)
	}
}

func TestRequireSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := RequireSession(next)

	t.Run("authenticated caller passes through", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		ctx := context.WithValue(r.Context(), jwt.ContextAuthPayloadKey, &jwt.Payload{Email: "a@example.com"})
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, r.WithContext(ctx))

		if w.Code != http.StatusNoContent {
			t.Errorf("expected the handler to run, got %d", w.Code)
		}
	})

	t.Run("anonymous api caller gets 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		r.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, r)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("anonymous browser gets redirected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
		r.Header.Set("Accept", "text/html,application/xhtml+xml")
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, r)

		if w.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Errorf("expected redirect to /login, got %q", loc)
		}
	})
}
