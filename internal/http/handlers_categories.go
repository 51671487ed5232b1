package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type categoriesData struct {
	Types      []core.CategoryType
	Categories []core.Category
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	cats, err := s.loadCategories(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpList, "categories", err)
		return
	}
	data := categoriesData{Types: transactionTypes, Categories: cats}
	s.render(w, r, http.StatusOK, "categories_page", s.pageFor(r, "Categories", "categories", data))
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	c := core.Category{
		Name: sanitizeInput(r.PostForm.Get("name")),
		Type: core.CategoryType(sanitizeInput(r.PostForm.Get("type"))),
	}
	if err := c.Validate(); err != nil {
		s.invalid(w, r, err)
		return
	}
	if _, err := s.api.CreateCategory(ctx, userID, c); err != nil {
		s.handleAPIError(w, r, log.OpCreate, "category", err)
		return
	}
	s.categories.Delete(userID)

	s.done(w, r, "/categories", "created", s.categoryRows(ctx, userID), "category", "Category added")
}

// handleUpdateCategory renames a category. The body may be urlencoded or
// JSON (hx-put with the json-enc extension).
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	c := core.Category{
		ID:   core.ID(chi.URLParam(r, "id")),
		Name: body.Get("name"),
		Type: core.CategoryType(body.Get("type")),
	}
	if err := c.Validate(); err != nil {
		s.invalid(w, r, err)
		return
	}
	if err := s.api.UpdateCategory(ctx, c); err != nil {
		s.handleAPIError(w, r, log.OpUpdate, "category", err)
		return
	}
	s.categories.Delete(userID)

	s.done(w, r, "/categories", "updated", s.categoryRows(ctx, userID), "category", "Category renamed")
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	if err := s.api.DeleteCategory(ctx, core.ID(chi.URLParam(r, "id"))); err != nil {
		s.handleAPIError(w, r, log.OpDelete, "category", err)
		return
	}
	s.categories.Delete(userID)

	s.done(w, r, "/categories", "deleted", nil, "category", "Category deleted")
}

func (s *Server) categoryRows(ctx context.Context, userID string) func() (string, any, error) {
	return func() (string, any, error) {
		cats, err := s.loadCategories(ctx, userID)
		return "category_rows", cats, err
	}
}
