// Package session holds the authenticated user's identity and token as
// one explicit object, so login state is never scattered across views.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roadassist/client/internal/credential"
	"github.com/roadassist/client/internal/model"
)

// Session is the single source of truth for authentication state.
// Safe for concurrent use; the API client, the push connection, and the
// pollers all read the token through it.
type Session struct {
	instanceID string

	mu      sync.RWMutex
	token   string
	user    *model.UserProfile
	onClear []func()
}

// New returns an empty, unauthenticated session. The instance ID tags
// this process in logs and in live location publishes, so the server
// can tell two devices of the same user apart.
func New() *Session {
	return &Session{instanceID: uuid.NewString()}
}

// InstanceID identifies this process for the lifetime of the run.
func (s *Session) InstanceID() string {
	return s.instanceID
}

// Start installs the token and profile after a successful login and
// persists the token to the system keyring.
func (s *Session) Start(token string, user *model.UserProfile) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	return credential.Set(credential.KeySessionToken, token)
}

// Resume loads a previously persisted token from the keyring. The
// caller still needs to validate it (e.g. by fetching the profile)
// before treating the session as live.
func (s *Session) Resume() (string, error) {
	token, err := credential.Get(credential.KeySessionToken)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	return token, nil
}

// SetUser attaches the profile once a resumed token has been validated.
func (s *Session) SetUser(user *model.UserProfile) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// Token returns the current bearer token, or empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the authenticated profile, or nil when logged out.
func (s *Session) User() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Role returns the user's role, or empty when logged out.
func (s *Session) Role() model.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// Active reports whether a token is installed.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// OnClear registers a teardown hook run when the session ends. Hooks
// fire in registration order, exactly once per Clear.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Clear is the single teardown path for both explicit logout and
// server-side session expiry. It wipes the in-memory state, removes
// the persisted token, and runs the registered hooks.
func (s *Session) Clear() {
	s.mu.Lock()
	alreadyCleared := s.token == "" && s.user == nil
	s.token = ""
	s.user = nil
	hooks := s.onClear
	s.mu.Unlock()

	if alreadyCleared {
		return
	}

	// Best effort: a missing keyring entry is not an error worth
	// surfacing during teardown.
	_ = credential.Delete(credential.KeySessionToken)

	for _, fn := range hooks {
		fn()
	}
}
