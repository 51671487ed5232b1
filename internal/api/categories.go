package api

import (
	"context"
	"fmt"
	"net/http"

	"fintrack/internal/core"
)

// ListCategories returns the categories of userID.
func (c *Client) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	var out []core.Category
	err := c.do(ctx, call{
		method:     http.MethodGet,
		path:       "/api/categories/{userId}",
		pathParams: map[string]string{"userId": userID},
		out:        &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// CreateCategory stores category for userID and returns the stored copy.
func (c *Client) CreateCategory(ctx context.Context, userID string, category core.Category) (core.Category, error) {
	created := category
	err := c.do(ctx, call{
		method:     http.MethodPost,
		path:       "/api/categories/create/{userId}",
		pathParams: map[string]string{"userId": userID},
		body:       category,
		out:        &created,
		bestEffort: true,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// UpdateCategory replaces the category with category.ID.
func (c *Client) UpdateCategory(ctx context.Context, category core.Category) error {
	if err := c.do(ctx, call{
		method:     http.MethodPut,
		path:       "/api/categories/{id}",
		pathParams: map[string]string{"id": category.ID.String()},
		body:       category,
	}); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes the category with id.
func (c *Client) DeleteCategory(ctx context.Context, id core.ID) error {
	if err := c.do(ctx, call{
		method:     http.MethodDelete,
		path:       "/api/categories/{id}",
		pathParams: map[string]string{"id": id.String()},
	}); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
