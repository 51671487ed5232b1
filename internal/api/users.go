package api

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// GetUser returns the profile of userID.
func (c *Client) GetUser(ctx context.Context, userID string) (core.User, error) {
	var u core.User
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/api/users/{userId}",
		pathParams: map[string]string{"userId": userID},
		out:        &u,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Password = ""
	return u, nil
}

// UpdateUser replaces the profile of userID. An empty password leaves it
// unchanged.
func (c *Client) UpdateUser(ctx context.Context, userID string, u core.User) error {
	if err := c.do(ctx, call{
		method:     http.MethodPut,
		path:       "/api/users/{userId}",
		pathParams: map[string]string{"userId": userID},
		body:       u,
	}); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser removes the account of userID.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if err := c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/api/users/{userId}",
		pathParams: map[string]string{"userId": userID},
	}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
