// Package store holds the two client-side state owners: the session
// store (current user, authentication state) and the expense store (the
// local expense list). Both mediate every call to the remote data
// service and reconcile their in-memory state with its responses.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/credential"
	applog "pennywise/internal/log"
)

// State is the session store's authentication state.
type State string

const (
	// StateChecking is the transient initial state while the persisted
	// session is being restored.
	StateChecking        State = "checking"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// Transition describes one state change, delivered to subscribers
// exactly once per change. User is the current user after the
// transition, nil when signed out.
type Transition struct {
	From State
	To   State
	User *core.User
}

// UserDirectory is the remote /users collection.
type UserDirectory interface {
	FindUserByUsername(ctx context.Context, username string) (*core.User, error)
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	UpdateUser(ctx context.Context, id string, patch core.UserPatch) (core.User, error)
}

// SessionStorage is the durable local session record.
type SessionStorage interface {
	SaveSession(ctx context.Context, u core.User) error
	LoadSession(ctx context.Context) (*core.User, error)
	ClearSession(ctx context.Context) error
}

// SessionStore owns the current user. It never calls into the
// presentation or navigation layer; those subscribe to transitions
// instead.
type SessionStore struct {
	directory UserDirectory
	vault     SessionStorage
	logger    *applog.Logger

	mu          sync.Mutex
	state       State
	user        *core.User
	errMsg      string
	loading     bool
	subscribers []func(Transition)
}

// NewSessionStore creates a session store in the checking state. Call
// Init to restore a persisted session.
func NewSessionStore(directory UserDirectory, vault SessionStorage, logger *applog.Logger) *SessionStore {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SessionStore{
		directory: directory,
		vault:     vault,
		logger:    logger.WithComponent(applog.ComponentSession),
		state:     StateChecking,
	}
}

// Subscribe registers fn to be called once per state transition.
// Callbacks run synchronously after the store has settled, outside its
// lock, so they may read the store freely.
func (s *SessionStore) Subscribe(fn func(Transition)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Init restores the persisted session and leaves the checking state. A
// storage failure degrades to signed-out; it never blocks startup.
func (s *SessionStore) Init(ctx context.Context) {
	u, err := s.vault.LoadSession(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to restore session, starting signed out",
			applog.FieldError, err)
		u = nil
	}
	if u != nil {
		s.transition(StateAuthenticated, u)
		return
	}
	s.transition(StateUnauthenticated, nil)
}

// State returns the current authentication state.
func (s *SessionStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *SessionStore) CurrentUser() *core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Err returns the last recorded operation error, empty when the last
// operation that touches it succeeded.
func (s *SessionStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// IsLoading reports whether an operation is in flight. The flag is
// shared across operations; see the note on ExpenseStore.
func (s *SessionStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SignIn authenticates username/password against the remote directory.
// On failure the store stays in its prior state with a readable error
// recorded; nothing is persisted.
func (s *SessionStore) SignIn(ctx context.Context, username, password string) error {
	s.begin(true)
	defer s.end()

	u, err := s.directory.FindUserByUsername(ctx, username)
	if err != nil {
		return s.fail(ctx, applog.OpSignIn, "Failed to sign in", err)
	}
	if u == nil {
		return s.fail(ctx, applog.OpSignIn, "User not found", core.ErrNotFound)
	}

	ok, err := credential.Verify(password, u.Password)
	if err != nil {
		return s.fail(ctx, applog.OpSignIn, "Stored credentials are unreadable", err)
	}
	if !ok {
		return s.fail(ctx, applog.OpSignIn, "Invalid password", core.ErrInvalidCredentials)
	}

	if err := s.vault.SaveSession(ctx, *u); err != nil {
		return s.fail(ctx, applog.OpSignIn, "Failed to persist session", err)
	}

	s.logger.InfoContext(ctx, "Signed in",
		applog.FieldUserID, u.ID,
		applog.FieldUsername, u.Username)
	s.transition(StateAuthenticated, u)
	return nil
}

// SignUp registers a new account and signs it in. The username must be
// email-shaped; the remote service does not enforce uniqueness, so the
// collision check happens here.
func (s *SessionStore) SignUp(ctx context.Context, username, password string) error {
	s.begin(true)
	defer s.end()

	if err := core.ValidateUsername(username); err != nil {
		return s.fail(ctx, applog.OpSignUp, "Username must be a valid email address", err)
	}

	existing, err := s.directory.FindUserByUsername(ctx, username)
	if err != nil {
		return s.fail(ctx, applog.OpSignUp, "Failed to sign up", err)
	}
	if existing != nil {
		return s.fail(ctx, applog.OpSignUp, "Username already taken", core.ErrUsernameTaken)
	}

	hash, err := credential.Hash(password)
	if err != nil {
		return s.fail(ctx, applog.OpSignUp, "Failed to sign up", err)
	}

	created, err := s.directory.CreateUser(ctx, core.User{
		Username:             username,
		Password:             hash,
		CreatedAt:            time.Now().UnixMilli(),
		BudgetLimit:          0,
		NotificationsEnabled: true,
	})
	if err != nil {
		return s.fail(ctx, applog.OpSignUp, "Failed to sign up", err)
	}

	if err := s.vault.SaveSession(ctx, created); err != nil {
		return s.fail(ctx, applog.OpSignUp, "Failed to persist session", err)
	}

	s.logger.InfoContext(ctx, "Account created",
		applog.FieldUserID, created.ID,
		applog.FieldUsername, created.Username)
	s.transition(StateAuthenticated, &created)
	return nil
}

// SignOut clears the session. It is local-only and always succeeds: a
// failure to clear the vault is logged, not surfaced, and the in-memory
// state signs out regardless.
func (s *SessionStore) SignOut(ctx context.Context) {
	s.begin(false)
	defer s.end()

	if err := s.vault.ClearSession(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear persisted session",
			applog.FieldOperation, applog.OpSignOut,
			applog.FieldError, err)
	}
	s.logger.InfoContext(ctx, "Signed out")
	s.transition(StateUnauthenticated, nil)
}

// UpdateUser sends a partial update for the current user and
// shallow-merges the response into the in-memory and persisted record.
func (s *SessionStore) UpdateUser(ctx context.Context, patch core.UserPatch) error {
	s.begin(true)
	defer s.end()

	current := s.CurrentUser()
	if current == nil {
		return s.fail(ctx, applog.OpUpdate, "User not authenticated", core.ErrNotAuthenticated)
	}

	updated, err := s.directory.UpdateUser(ctx, current.ID, patch)
	if err != nil {
		return s.fail(ctx, applog.OpUpdate, "Failed to update user", err)
	}

	merged := core.MergeUser(*current, updated)
	if err := s.vault.SaveSession(ctx, merged); err != nil {
		return s.fail(ctx, applog.OpUpdate, "Failed to persist session", err)
	}

	s.mu.Lock()
	s.user = &merged
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "User updated", applog.FieldUserID, merged.ID)
	return nil
}

// begin marks an operation in flight; clearError matches the operations
// that reset the banner (sign-in, sign-up, update) versus sign-out.
func (s *SessionStore) begin(clearError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	if clearError {
		s.errMsg = ""
	}
}

func (s *SessionStore) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

// fail records a readable message for the presentation layer and returns
// the wrapped cause for callers that branch on the taxonomy.
func (s *SessionStore) fail(ctx context.Context, op, msg string, cause error) error {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
	s.logger.WarnContext(ctx, msg,
		applog.FieldOperation, op,
		applog.FieldError, cause)
	return fmt.Errorf("%s: %w", op, cause)
}

// transition moves to a new state and notifies subscribers outside the
// lock. Subscribers see each change exactly once; setting the same
// state with the same user is not a transition.
func (s *SessionStore) transition(to State, user *core.User) {
	s.mu.Lock()
	from := s.state
	sameUser := (s.user == nil && user == nil) ||
		(s.user != nil && user != nil && s.user.ID == user.ID)
	if from == to && sameUser {
		s.user = user
		s.mu.Unlock()
		return
	}
	s.state = to
	s.user = user
	if to == StateAuthenticated {
		s.errMsg = ""
	}
	subs := make([]func(Transition), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	tr := Transition{From: from, To: to, User: user}
	for _, fn := range subs {
		fn(tr)
	}
}
