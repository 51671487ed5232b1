package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// ErrNoToken is returned when authentication succeeds without a token.
var ErrNoToken = errors.New("authentication response carried no token")

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges credentials for a credential token.
// Wrong credentials surface as ErrUnauthorized or ErrValidation depending
// on how the API answers.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	var out authResponse
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/users/auth",
		body:   credentials{Username: username, Password: password},
		out:    &out,
	})
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	token := strings.TrimSpace(out.Token)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, r core.Registration) error {
	if err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/users/register",
		body:   r,
	}); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}
