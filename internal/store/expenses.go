package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pennywise/internal/core"
	applog "pennywise/internal/log"
)

// ExpenseCollection is the remote /expenses collection.
type ExpenseCollection interface {
	ListExpensesByOwner(ctx context.Context, ownerID string) ([]core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
}

// SnapshotStorage persists the last fetched list per owner so `list
// --cached` works offline. Optional: a nil store disables snapshots.
type SnapshotStorage interface {
	SaveSnapshot(ctx context.Context, ownerID string, expenses []core.Expense) error
}

// CurrentUserSource is the slice of the session store the expense store
// depends on.
type CurrentUserSource interface {
	CurrentUser() *core.User
	Subscribe(fn func(Transition))
}

// ExpenseStore owns the in-memory expense list for the current user.
// The remote service is the source of truth; the list is reconciled
// against each response rather than refetched after every write.
//
// The loading flag is a single shared value across all operations:
// when two operations overlap, whichever finishes first clears it while
// the other is still in flight. Last write wins; callers treat the flag
// as a hint, not a lock.
type ExpenseStore struct {
	collection ExpenseCollection
	snapshots  SnapshotStorage
	session    CurrentUserSource
	logger     *applog.Logger

	mu        sync.Mutex
	expenses  []core.Expense
	errMsg    string
	loading   bool
	lastOwner string
}

// NewExpenseStore creates an expense store bound to the session store's
// transitions: it refetches when a user signs in (or the user changes)
// and drops its list when the user signs out.
func NewExpenseStore(collection ExpenseCollection, snapshots SnapshotStorage, session CurrentUserSource, logger *applog.Logger) *ExpenseStore {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &ExpenseStore{
		collection: collection,
		snapshots:  snapshots,
		session:    session,
		logger:     logger.WithComponent(applog.ComponentExpenses),
	}
	session.Subscribe(s.onTransition)
	return s
}

func (s *ExpenseStore) onTransition(tr Transition) {
	switch tr.To {
	case StateAuthenticated:
		s.mu.Lock()
		changed := tr.User != nil && tr.User.ID != s.lastOwner
		s.mu.Unlock()
		if changed {
			if err := s.Fetch(context.Background()); err != nil {
				s.logger.Warn("Initial expense fetch failed", applog.FieldError, err)
			}
		}
	case StateUnauthenticated:
		s.clear()
	}
}

// Expenses returns a copy of the current list.
func (s *ExpenseStore) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

// Err returns the last recorded operation error, empty after a success.
func (s *ExpenseStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// IsLoading reports whether an operation is in flight. See the type
// comment for the overlap caveat.
func (s *ExpenseStore) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Fetch replaces the list with the owner's expenses from the remote
// service. A no-op when nobody is signed in. On success the list is also
// snapshotted locally, best-effort.
func (s *ExpenseStore) Fetch(ctx context.Context) error {
	user := s.session.CurrentUser()
	if user == nil {
		return nil
	}

	s.begin()
	defer s.end()

	items, err := s.collection.ListExpensesByOwner(ctx, user.ID)
	if err != nil {
		return s.fail(ctx, applog.OpFetch, "Failed to fetch expenses", err)
	}

	s.mu.Lock()
	s.expenses = items
	s.lastOwner = user.ID
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Expenses fetched",
		applog.FieldOwnerID, user.ID,
		applog.FieldCount, len(items))

	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, user.ID, items); err != nil {
			s.logger.WarnContext(ctx, "Failed to snapshot expenses",
				applog.FieldOwnerID, user.ID,
				applog.FieldError, err)
		}
	}
	return nil
}

// Add validates the draft, stamps owner and creation time, creates the
// expense remotely and appends the server's record to the list. A no-op
// when nobody is signed in.
func (s *ExpenseStore) Add(ctx context.Context, draft core.ExpenseDraft) error {
	user := s.session.CurrentUser()
	if user == nil {
		return nil
	}
	if err := draft.Validate(); err != nil {
		return s.fail(ctx, applog.OpCreate, "Invalid expense", err)
	}

	s.begin()
	defer s.end()

	created, err := s.collection.CreateExpense(ctx, core.Expense{
		Title:       draft.Title,
		Description: draft.Description,
		Amount:      draft.Amount,
		Category:    draft.Category,
		OwnerID:     user.ID,
		CreatedAt:   time.Now().UnixMilli(),
	})
	if err != nil {
		return s.fail(ctx, applog.OpCreate, "Failed to add expense", err)
	}

	s.mu.Lock()
	s.expenses = append(s.expenses, created)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense added",
		applog.FieldExpenseID, created.ID,
		applog.FieldAmount, created.Amount)
	return nil
}

// Update sends a partial update and merges the response into the
// matching local entry in place. When the id is not in the local list
// the remote record is updated but nothing changes locally.
func (s *ExpenseStore) Update(ctx context.Context, id string, patch core.ExpensePatch) error {
	s.begin()
	defer s.end()

	updated, err := s.collection.UpdateExpense(ctx, id, patch)
	if err != nil {
		return s.fail(ctx, applog.OpUpdate, "Failed to update expense", err)
	}

	s.mu.Lock()
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			s.expenses[i] = core.MergeExpense(s.expenses[i], updated)
			break
		}
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense updated", applog.FieldExpenseID, id)
	return nil
}

// Delete removes the expense remotely and, only on success, drops it
// from the local list. On failure the list is left unchanged.
func (s *ExpenseStore) Delete(ctx context.Context, id string) error {
	s.begin()
	defer s.end()

	if err := s.collection.DeleteExpense(ctx, id); err != nil {
		return s.fail(ctx, applog.OpDelete, "Failed to delete expense", err)
	}

	s.mu.Lock()
	kept := s.expenses[:0]
	for _, e := range s.expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.expenses = kept
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense deleted", applog.FieldExpenseID, id)
	return nil
}

func (s *ExpenseStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = nil
	s.errMsg = ""
	s.lastOwner = ""
}

func (s *ExpenseStore) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.errMsg = ""
}

func (s *ExpenseStore) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

func (s *ExpenseStore) fail(ctx context.Context, op, msg string, cause error) error {
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
	s.logger.WarnContext(ctx, msg,
		applog.FieldOperation, op,
		applog.FieldError, cause)
	return fmt.Errorf("%s: %w", op, cause)
}
