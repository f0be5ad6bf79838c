package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"pennywise/internal/core"
)

// ListExpensesByOwner returns every expense owned by ownerID. An owner
// with no expenses yields an empty slice; so does a 404 or a malformed
// collection body.
func (c *Client) ListExpensesByOwner(ctx context.Context, ownerID string) ([]core.Expense, error) {
	body, err := c.get(ctx, "/expenses?ownerid="+url.QueryEscape(ownerID), true)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return decodeList[core.Expense](c, body), nil
}

// CreateExpense stores a new expense and returns it with the
// server-assigned id.
func (c *Client) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	body, err := c.post(ctx, "/expenses", e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	var created core.Expense
	if err := json.Unmarshal(body, &created); err != nil {
		return core.Expense{}, fmt.Errorf("%w: decode created expense: %v", core.ErrRemote, err)
	}
	return created, nil
}

// UpdateExpense sends a partial update for id and returns the fields the
// server echoes back.
func (c *Client) UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	body, err := c.put(ctx, "/expenses/"+url.PathEscape(id), patch)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	var updated core.Expense
	if err := json.Unmarshal(body, &updated); err != nil {
		return core.Expense{}, fmt.Errorf("%w: decode updated expense: %v", core.ErrRemote, err)
	}
	return updated, nil
}

// DeleteExpense removes the expense with the given id.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if _, err := c.delete(ctx, "/expenses/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}
