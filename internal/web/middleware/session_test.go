package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-enroll/internal/enrollment"
)

func testFactory() WorkflowFactory {
	reg := enrollment.NewRegistry()
	return func() *enrollment.Workflow {
		return enrollment.New(nil, nil, enrollment.Options{Registry: reg})
	}
}

func TestSessionManager_CreateAndGet(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)

	session := sm.CreateSession()
	if session.ID == "" || session.Workflow == nil {
		t.Fatalf("incomplete session %+v", session)
	}
	if sm.GetSession(session.ID) != session {
		t.Error("GetSession() did not return the created session")
	}
	if sm.GetSession("nonexistent-id") != nil {
		t.Error("GetSession() should return nil for unknown id")
	}

	other := sm.CreateSession()
	if other.Workflow == session.Workflow {
		t.Error("expected a workflow per session")
	}
	if other.Workflow.Registry() != session.Workflow.Registry() {
		t.Error("expected sessions to share the registry")
	}
	if sm.Count() != 2 {
		t.Errorf("Count() = %d, want 2", sm.Count())
	}
}

func TestSessionManager_DeleteSession(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)
	session := sm.CreateSession()

	sm.DeleteSession(session.ID)
	if sm.GetSession(session.ID) != nil {
		t.Error("GetSession() should return nil after deletion")
	}
	// deleting twice is harmless
	sm.DeleteSession(session.ID)
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not found")
	return nil
}

func TestSessionManager_CookieRoundTrip(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)
	session := sm.CreateSession()

	w := httptest.NewRecorder()
	sm.SetSessionCookie(w, session)
	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	if got := sm.GetSessionFromRequest(req); got != session {
		t.Errorf("GetSessionFromRequest() = %v, want %v", got, session)
	}
}

func TestSessionManager_InvalidCookie(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)
	session := sm.CreateSession()

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session.ID + ".forged"})

	if sm.GetSessionFromRequest(req) != nil {
		t.Error("GetSessionFromRequest() should return nil for invalid signature")
	}
}

func TestSessionManager_CookieFromOtherSecret(t *testing.T) {
	sm1 := NewSessionManager("", testFactory(), nil)
	sm2 := NewSessionManager("", testFactory(), nil)
	session := sm1.CreateSession()

	if sm2.verifySignature(session.ID, sm1.signData(session.ID)) {
		t.Error("expected random secrets to differ")
	}
}

func TestSessionManager_HeaderLookup(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)
	session := sm.CreateSession()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Session-ID", sm.SessionToken(session))
	if got := sm.GetSessionFromRequest(req); got != session {
		t.Error("expected session from signed X-Session-ID header")
	}

	for _, token := range []string{session.ID, session.ID + ".forged", "." + sm.signData(session.ID)} {
		req = httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Session-ID", token)
		if sm.GetSessionFromRequest(req) != nil {
			t.Errorf("expected header %q to be rejected", token)
		}
	}
}

func TestWithSession_CreatesAndReuses(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)

	var seen []*Session
	var mu sync.Mutex
	handler := WithSession(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, GetSessionFromContext(r.Context()))
		mu.Unlock()
		if MustGetWorkflow(r.Context(), w) == nil {
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest("GET", "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", first.Code)
	}
	cookie := sessionCookie(t, first)
	if first.Header().Get("X-Session-ID") != cookie.Value {
		t.Errorf("expected X-Session-ID to carry the signed token, got %q", first.Header().Get("X-Session-ID"))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)

	if len(seen) != 2 || seen[0] == nil || seen[0] != seen[1] {
		t.Errorf("expected the same session for both requests, got %v", seen)
	}
	if len(second.Result().Cookies()) != 0 {
		t.Error("expected no new cookie for a known session")
	}
	if sm.Count() != 1 {
		t.Errorf("Count() = %d, want 1", sm.Count())
	}
}

func TestMustGetWorkflow_NoSession(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	if MustGetWorkflow(req.Context(), w) != nil {
		t.Fatal("expected nil workflow without session")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestSetSessionInContext(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)
	session := sm.CreateSession()
	req := httptest.NewRequest("GET", "/", nil)
	ctx := SetSessionInContext(req.Context(), session)
	if GetSessionFromContext(ctx) != session {
		t.Error("expected session from context")
	}
	if GetSessionFromContext(req.Context()) != nil {
		t.Error("expected nil for context without session")
	}
}

func TestSessionManager_SweepIdle(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	stale := sm.CreateSession()
	now = now.Add(sm.idleTimeout / 2)
	fresh := sm.CreateSession()
	now = now.Add(sm.idleTimeout/2 + time.Second)

	if removed := sm.SweepIdle(); removed != 1 {
		t.Fatalf("SweepIdle() = %d, want 1", removed)
	}
	if sm.GetSession(stale.ID) != nil {
		t.Error("expected stale session removed")
	}
	if sm.GetSession(fresh.ID) == nil {
		t.Error("expected fresh session kept")
	}
}

func TestSessionManager_Stop(t *testing.T) {
	sm := NewSessionManager("test-secret", testFactory(), nil)
	sm.StartCleanup(time.Hour)
	sm.CreateSession()
	sm.CreateSession()

	sm.Stop()
	sm.Stop()
	if sm.Count() != 0 {
		t.Errorf("Count() = %d after Stop, want 0", sm.Count())
	}
}
