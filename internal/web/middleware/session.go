package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kozaktomas/face-enroll/internal/constants"
	"github.com/kozaktomas/face-enroll/internal/enrollment"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	sessionCookieName            = "face_enroll_session"
)

// Session is one browser tab working on an enrollment. Each session owns its
// workflow and with it at most one camera.
type Session struct {
	ID        string
	Workflow  *enrollment.Workflow
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// WorkflowFactory creates the workflow of a new session
type WorkflowFactory func() *enrollment.Workflow

// SessionManager creates, finds and expires sessions
type SessionManager struct {
	secret      []byte
	newWorkflow WorkflowFactory
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager. An empty secret is replaced by
// a random one, so cookies do not survive a restart.
func NewSessionManager(secret string, factory WorkflowFactory, logger *zap.Logger) *SessionManager {
	key := []byte(secret)
	if secret == "" {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		secret:      key,
		newWorkflow: factory,
		idleTimeout: constants.SessionIdleTimeout,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*Session),
		stop:        make(chan struct{}),
	}
}

// CreateSession starts a session with a fresh workflow
func (sm *SessionManager) CreateSession() *Session {
	now := sm.now()
	session := &Session{
		ID:        uuid.NewString(),
		Workflow:  sm.newWorkflow(),
		CreatedAt: now,
		lastSeen:  now,
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	sm.logger.Debug("session created", zap.String("session_id", session.ID))
	return session
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[sessionID]
}

// DeleteSession removes a session and releases its workflow
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if ok {
		_ = session.Workflow.Close()
	}
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Sessions returns a copy of all live sessions
func (sm *SessionManager) Sessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

// SweepIdle removes sessions not used for longer than the idle timeout and
// returns how many were removed.
func (sm *SessionManager) SweepIdle() int {
	now := sm.now()
	var expired []string
	sm.mu.RLock()
	for id, s := range sm.sessions {
		if s.idleSince(now) > sm.idleTimeout {
			expired = append(expired, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range expired {
		sm.DeleteSession(id)
	}
	if len(expired) > 0 {
		sm.logger.Info("released idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// StartCleanup sweeps idle sessions every interval until Stop is called.
func (sm *SessionManager) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sm.SweepIdle()
			case <-sm.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop and releases every session
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
	for _, s := range sm.Sessions() {
		sm.DeleteSession(s.ID)
	}
}

// SessionToken returns the signed token that identifies session to clients,
// both as the cookie value and as the X-Session-ID header.
func (sm *SessionManager) SessionToken(session *Session) string {
	return session.ID + "." + sm.signData(session.ID)
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sm.SessionToken(session),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionFromRequest extracts the session from the signed cookie, or from
// the signed X-Session-ID header for non-browser clients.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if session := sm.sessionFromToken(cookie.Value); session != nil {
			return session
		}
	}
	return sm.sessionFromToken(r.Header.Get("X-Session-ID"))
}

func (sm *SessionManager) sessionFromToken(token string) *Session {
	id, signature, ok := strings.Cut(token, ".")
	if !ok || !sm.verifySignature(id, signature) {
		return nil
	}
	return sm.GetSession(id)
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// WithSession attaches the caller's session to the request context, creating
// one when the request carries none.
func WithSession(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				session = sm.CreateSession()
				sm.SetSessionCookie(w, session)
			}
			session.touch(sm.now())
			w.Header().Set("X-Session-ID", sm.SessionToken(session))

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use WithSession middleware in production.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// MustGetWorkflow retrieves the session workflow from context.
// If not available, writes an error response and returns nil.
// Handlers should return immediately after receiving nil.
func MustGetWorkflow(ctx context.Context, w http.ResponseWriter) *enrollment.Workflow {
	session := GetSessionFromContext(ctx)
	if session == nil || session.Workflow == nil {
		http.Error(w, `{"error": "no enrollment session"}`, http.StatusInternalServerError)
		return nil
	}
	return session.Workflow
}
