package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pennywise/internal/core"
)

func newExpenseStore(t *testing.T) (*ExpenseStore, *fakeCollection, *fakeSnapshots, *fakeSession) {
	t.Helper()
	coll := &fakeCollection{}
	snaps := &fakeSnapshots{}
	session := &fakeSession{user: &core.User{ID: "u1", Username: "ada@example.com"}}
	return NewExpenseStore(coll, snaps, session, nil), coll, snaps, session
}

func TestFetchReplacesListAndSnapshots(t *testing.T) {
	s, coll, snaps, _ := newExpenseStore(t)
	coll.items = []core.Expense{
		{ID: "e1", Title: "Groceries", Amount: 10, Category: core.CategoryFood, OwnerID: "u1"},
		{ID: "e2", Title: "Bus", Amount: 2.5, Category: core.CategoryTransportation, OwnerID: "u1"},
		{ID: "e3", Title: "Not mine", Amount: 99, OwnerID: "u2"},
	}

	// Pre-existing local state is replaced, not merged.
	s.expenses = []core.Expense{{ID: "stale"}}
	require.NoError(t, s.Fetch(context.Background()))

	got := s.Expenses()
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)
	assert.Len(t, snaps.saved["u1"], 2)
}

func TestFetchWithoutUserIsNoOp(t *testing.T) {
	s, coll, _, session := newExpenseStore(t)
	session.user = nil

	require.NoError(t, s.Fetch(context.Background()))
	assert.Zero(t, coll.listCalls)
	assert.Empty(t, s.Expenses())
}

func TestFetchFailureKeepsList(t *testing.T) {
	s, coll, _, _ := newExpenseStore(t)
	s.expenses = []core.Expense{{ID: "e1"}}
	coll.listErr = core.ErrRemote

	err := s.Fetch(context.Background())
	require.ErrorIs(t, err, core.ErrRemote)
	assert.Equal(t, "Failed to fetch expenses", s.Err())
	assert.Len(t, s.Expenses(), 1)
}

func TestFetchSucceedsWhenSnapshotFails(t *testing.T) {
	s, coll, snaps, _ := newExpenseStore(t)
	coll.items = []core.Expense{{ID: "e1", OwnerID: "u1"}}
	snaps.err = errors.New("disk full")

	require.NoError(t, s.Fetch(context.Background()))
	assert.Len(t, s.Expenses(), 1)
}

func TestAddStampsOwnerAndAppends(t *testing.T) {
	s, coll, _, _ := newExpenseStore(t)

	require.NoError(t, s.Add(context.Background(), core.ExpenseDraft{
		Title:       "Coffee",
		Description: "Morning espresso",
		Amount:      4.5,
		Category:    core.CategoryFood,
	}))

	got := s.Expenses()
	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].OwnerID)
	assert.Equal(t, 4.5, got[0].Amount)
	assert.NotZero(t, got[0].CreatedAt)
	assert.NotEmpty(t, got[0].ID)
	require.Len(t, coll.items, 1)
}

func TestAddWithoutUserIsNoOp(t *testing.T) {
	s, coll, _, session := newExpenseStore(t)
	session.user = nil

	require.NoError(t, s.Add(context.Background(), core.ExpenseDraft{
		Title: "Coffee", Description: "x", Amount: 1,
	}))
	assert.Empty(t, coll.items)
}

func TestAddRejectsInvalidDraft(t *testing.T) {
	s, coll, _, _ := newExpenseStore(t)

	err := s.Add(context.Background(), core.ExpenseDraft{Title: " ", Description: "x", Amount: 1})
	require.ErrorIs(t, err, core.ErrEmptyTitle)
	assert.Equal(t, "Invalid expense", s.Err())
	assert.Empty(t, coll.items)

	err = s.Add(context.Background(), core.ExpenseDraft{Title: "x", Description: "y", Amount: -1})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, coll.items)
}

func TestUpdateMergesInPlace(t *testing.T) {
	s, coll, _, _ := newExpenseStore(t)
	coll.items = []core.Expense{
		{ID: "e1", Title: "Groceries", Description: "weekly", Amount: 10, Category: core.CategoryFood, OwnerID: "u1", CreatedAt: 42},
	}
	require.NoError(t, s.Fetch(context.Background()))

	amount := 12.5
	require.NoError(t, s.Update(context.Background(), "e1", core.ExpensePatch{Amount: &amount}))

	got := s.Expenses()
	require.Len(t, got, 1)
	assert.Equal(t, 12.5, got[0].Amount)
	assert.Equal(t, "Groceries", got[0].Title)
	assert.Equal(t, int64(42), got[0].CreatedAt)
}

func TestUpdateUnknownIDLeavesListUnchanged(t *testing.T) {
	s, _, _, _ := newExpenseStore(t)
	s.expenses = []core.Expense{{ID: "e1", Title: "Groceries"}}

	title := "Ghost"
	require.NoError(t, s.Update(context.Background(), "missing", core.ExpensePatch{Title: &title}))

	got := s.Expenses()
	require.Len(t, got, 1)
	assert.Equal(t, "Groceries", got[0].Title)
}

func TestUpdateFailureKeepsList(t *testing.T) {
	s, coll, _, _ := newExpenseStore(t)
	s.expenses = []core.Expense{{ID: "e1", Title: "Groceries"}}
	coll.updateErr = core.ErrRemote

	title := "New"
	err := s.Update(context.Background(), "e1", core.ExpensePatch{Title: &title})
	require.ErrorIs(t, err, core.ErrRemote)
	assert.Equal(t, "Groceries", s.Expenses()[0].Title)
}

func TestDeleteRemovesOnlyMatch(t *testing.T) {
	s, coll, _, _ := newExpenseStore(t)
	coll.items = []core.Expense{
		{ID: "e1", OwnerID: "u1"},
		{ID: "e2", OwnerID: "u1"},
	}
	require.NoError(t, s.Fetch(context.Background()))

	require.NoError(t, s.Delete(context.Background(), "e1"))
	got := s.Expenses()
	require.Len(t, got, 1)
	assert.Equal(t, "e2", got[0].ID)
}

func TestDeleteFailureLeavesList(t *testing.T) {
	s, coll, _, _ := newExpenseStore(t)
	s.expenses = []core.Expense{{ID: "e1"}}
	coll.deleteErr = core.ErrRemote

	err := s.Delete(context.Background(), "e1")
	require.ErrorIs(t, err, core.ErrRemote)
	assert.Len(t, s.Expenses(), 1)
	assert.Equal(t, "Failed to delete expense", s.Err())
}

func TestListClearedOnSignOut(t *testing.T) {
	s, _, _, session := newExpenseStore(t)
	s.expenses = []core.Expense{{ID: "e1"}}
	s.errMsg = "stale"

	session.emit(Transition{From: StateAuthenticated, To: StateUnauthenticated})

	assert.Empty(t, s.Expenses())
	assert.Empty(t, s.Err())
}

func TestRefetchOnUserChange(t *testing.T) {
	coll := &fakeCollection{items: []core.Expense{
		{ID: "e1", OwnerID: "u1"},
		{ID: "e2", OwnerID: "u2"},
	}}
	session := &fakeSession{}
	s := NewExpenseStore(coll, nil, session, nil)

	session.emit(Transition{From: StateChecking, To: StateAuthenticated, User: &core.User{ID: "u1"}})
	require.Len(t, s.Expenses(), 1)
	assert.Equal(t, "e1", s.Expenses()[0].ID)

	session.emit(Transition{From: StateAuthenticated, To: StateUnauthenticated})
	session.emit(Transition{From: StateUnauthenticated, To: StateAuthenticated, User: &core.User{ID: "u2"}})
	require.Len(t, s.Expenses(), 1)
	assert.Equal(t, "e2", s.Expenses()[0].ID)
}

func TestExpenseStoreFollowsRealSession(t *testing.T) {
	dir := newFakeDirectory()
	vault := &fakeVault{}
	session := NewSessionStore(dir, vault, nil)
	coll := &fakeCollection{}
	s := NewExpenseStore(coll, nil, session, nil)

	session.Init(context.Background())
	require.NoError(t, session.SignUp(context.Background(), "ada@example.com", "pw"))
	owner := session.CurrentUser().ID

	require.NoError(t, s.Add(context.Background(), core.ExpenseDraft{
		Title: "Coffee", Description: "espresso", Amount: 3,
	}))
	require.Len(t, s.Expenses(), 1)
	assert.Equal(t, owner, s.Expenses()[0].OwnerID)

	session.SignOut(context.Background())
	assert.Empty(t, s.Expenses())
}
