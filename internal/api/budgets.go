package api

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// ListBudgets returns the budgets of userID with spent amounts as the API
// reports them; status is recomputed by the caller.
func (c *Client) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	var out []core.Budget
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/api/budgets/{userId}",
		pathParams: map[string]string{"userId": userID},
		out:        &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

// CreateBudget stores b for userID and returns the stored copy.
func (c *Client) CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	created := b
	err := c.do(ctx, call{
		method:     http.MethodPost,
		path:       "/api/budgets/create/{userId}",
		pathParams: map[string]string{"userId": userID},
		body:       b,
		out:        &created,
		bestEffort: true,
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return created, nil
}

func (c *Client) DeleteBudget(ctx context.Context, id core.ID) error {
	if err := c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/api/budgets/{id}",
		pathParams: map[string]string{"id": id.String()},
	}); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
