package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"pennywise/internal/core"
)

// FindUserByUsername looks up a user record by its login key. A missing
// record is (nil, nil): the service answers an unknown username with
// either 404 or an empty array.
func (c *Client) FindUserByUsername(ctx context.Context, username string) (*core.User, error) {
	body, err := c.get(ctx, "/users?username="+url.QueryEscape(username), true)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	users := decodeList[core.User](c, body)
	if len(users) == 0 {
		return nil, nil
	}
	u := users[0]
	return &u, nil
}

// GetUser fetches a user record by id. Missing records are (nil, nil).
func (c *Client) GetUser(ctx context.Context, id string) (*core.User, error) {
	body, err := c.get(ctx, "/users/"+url.PathEscape(id), true)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if body == nil {
		return nil, nil
	}
	var u core.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", core.ErrRemote, err)
	}
	return &u, nil
}

// CreateUser registers a new user record and returns it with the
// server-assigned id.
func (c *Client) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	body, err := c.post(ctx, "/users", u)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	var created core.User
	if err := json.Unmarshal(body, &created); err != nil {
		return core.User{}, fmt.Errorf("%w: decode created user: %v", core.ErrRemote, err)
	}
	return created, nil
}

// UpdateUser sends a partial update and returns the updated record as
// the server reports it.
func (c *Client) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (core.User, error) {
	body, err := c.put(ctx, "/users/"+url.PathEscape(id), patch)
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	var updated core.User
	if err := json.Unmarshal(body, &updated); err != nil {
		return core.User{}, fmt.Errorf("%w: decode updated user: %v", core.ErrRemote, err)
	}
	return updated, nil
}
