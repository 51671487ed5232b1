package api

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// ListDebts returns the debts of userID.
func (c *Client) ListDebts(ctx context.Context, userID string) ([]core.Debt, error) {
	var out []core.Debt
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/api/debts/{userId}",
		pathParams: map[string]string{"userId": userID},
		out:        &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return out, nil
}

// CreateDebt stores d for userID and returns the stored copy.
func (c *Client) CreateDebt(ctx context.Context, userID string, d core.Debt) (core.Debt, error) {
	created := d
	err := c.do(ctx, call{
		method:     http.MethodPost,
		path:       "/api/debts/create/{userId}",
		pathParams: map[string]string{"userId": userID},
		body:       d,
		out:        &created,
		bestEffort: true,
	})
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	return created, nil
}

// UpdateDebt replaces the debt with d.ID; used to mark a debt paid.
func (c *Client) UpdateDebt(ctx context.Context, d core.Debt) error {
	if err := c.do(ctx, call{
		method:     http.MethodPut,
		path:       "/api/debts/{id}",
		pathParams: map[string]string{"id": d.ID.String()},
		body:       d,
	}); err != nil {
		return fmt.Errorf("update debt: %w", err)
	}
	return nil
}

// DeleteDebt removes the debt with id.
func (c *Client) DeleteDebt(ctx context.Context, id core.ID) error {
	if err := c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/api/debts/{id}",
		pathParams: map[string]string{"id": id.String()},
	}); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}
