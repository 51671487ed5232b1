package api

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// ListTransactions returns every transaction of userID. Filtering happens
// client side (see core.TransactionFilter).
func (c *Client) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	var out []core.Transaction
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/api/transactions/{userId}",
		pathParams: map[string]string{"userId": userID},
		out:        &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

// CreateTransaction stores tx for userID and returns the stored copy.
func (c *Client) CreateTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	created := tx
	err := c.do(ctx, call{
		method:     http.MethodPost,
		path:       "/api/transactions/create/{userId}",
		pathParams: map[string]string{"userId": userID},
		body:       tx,
		out:        &created,
		bestEffort: true,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id core.ID) error {
	if err := c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/api/transactions/{id}",
		pathParams: map[string]string{"id": id.String()},
	}); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}
