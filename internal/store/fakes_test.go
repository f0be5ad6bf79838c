package store

import (
	"context"
	"fmt"
	"sync"

	"pennywise/internal/core"
)

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]core.User // keyed by username
	nextID  int
	findErr error
	saveErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]core.User{}}
}

func (d *fakeDirectory) FindUserByUsername(_ context.Context, username string) (*core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.findErr != nil {
		return nil, d.findErr
	}
	u, ok := d.users[username]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (d *fakeDirectory) CreateUser(_ context.Context, u core.User) (core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saveErr != nil {
		return core.User{}, d.saveErr
	}
	d.nextID++
	u.ID = fmt.Sprintf("u%d", d.nextID)
	d.users[u.Username] = u
	return u, nil
}

func (d *fakeDirectory) UpdateUser(_ context.Context, id string, patch core.UserPatch) (core.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saveErr != nil {
		return core.User{}, d.saveErr
	}
	for name, u := range d.users {
		if u.ID == id {
			u.Apply(patch)
			d.users[name] = u
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

type fakeVault struct {
	mu       sync.Mutex
	user     *core.User
	saveErr  error
	loadErr  error
	clearErr error
}

func (v *fakeVault) SaveSession(_ context.Context, u core.User) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.saveErr != nil {
		return v.saveErr
	}
	clean := u.Sanitized()
	v.user = &clean
	return nil
}

func (v *fakeVault) LoadSession(_ context.Context) (*core.User, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loadErr != nil {
		return nil, v.loadErr
	}
	return v.user, nil
}

func (v *fakeVault) ClearSession(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.clearErr != nil {
		return v.clearErr
	}
	v.user = nil
	return nil
}

type fakeCollection struct {
	mu        sync.Mutex
	items     []core.Expense
	nextID    int
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	listCalls int
}

func (c *fakeCollection) ListExpensesByOwner(_ context.Context, ownerID string) ([]core.Expense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	var out []core.Expense
	for _, e := range c.items {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *fakeCollection) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createErr != nil {
		return core.Expense{}, c.createErr
	}
	c.nextID++
	e.ID = fmt.Sprintf("e%d", c.nextID)
	c.items = append(c.items, e)
	return e, nil
}

func (c *fakeCollection) UpdateExpense(_ context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.updateErr != nil {
		return core.Expense{}, c.updateErr
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Apply(patch)
			return c.items[i], nil
		}
	}
	// The mock backend happily updates records it has never seen.
	e := core.Expense{ID: id}
	e.Apply(patch)
	return e, nil
}

func (c *fakeCollection) DeleteExpense(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	kept := c.items[:0]
	for _, e := range c.items {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	c.items = kept
	return nil
}

type fakeSnapshots struct {
	mu    sync.Mutex
	saved map[string][]core.Expense
	err   error
}

func (s *fakeSnapshots) SaveSnapshot(_ context.Context, ownerID string, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string][]core.Expense{}
	}
	s.saved[ownerID] = expenses
	return nil
}

// fakeSession drives the expense store directly, without the real state
// machine.
type fakeSession struct {
	user *core.User
	subs []func(Transition)
}

func (s *fakeSession) CurrentUser() *core.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *fakeSession) Subscribe(fn func(Transition)) {
	s.subs = append(s.subs, fn)
}

func (s *fakeSession) emit(tr Transition) {
	s.user = tr.User
	for _, fn := range s.subs {
		fn(tr)
	}
}
