package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type budgetsData struct {
	Categories []core.Category
	Budgets    []core.Budget
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	budgets, err := s.api.ListBudgets(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpList, "budgets", err)
		return
	}
	cats, err := s.loadCategories(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpList, "categories", err)
		return
	}

	data := budgetsData{Categories: expenseCategories(cats), Budgets: budgets}
	s.render(w, r, http.StatusOK, "budgets_page", s.pageFor(r, "Budgets", "budgets", data))
}

func expenseCategories(cats []core.Category) []core.Category {
	out := make([]core.Category, 0, len(cats))
	for _, c := range cats {
		if c.Type == core.Expense {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
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

	b, err := budgetFromForm(r)
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	if _, err := s.api.CreateBudget(ctx, userID, b); err != nil {
		s.handleAPIError(w, r, log.OpCreate, "budget", err)
		return
	}

	s.done(w, r, "/budgets", "created", func() (string, any, error) {
		budgets, err := s.api.ListBudgets(ctx, userID)
		return "budget_rows", budgets, err
	}, "budget", "Budget added")
}

func budgetFromForm(r *http.Request) (core.Budget, error) {
	limit, err := core.ParseMoney(r.PostForm.Get("limit"))
	if err != nil {
		return core.Budget{}, fmt.Errorf("limit: %w", err)
	}
	spent := core.Money{}
	if v := strings.TrimSpace(r.PostForm.Get("spent")); v != "" {
		if spent, err = core.ParseMoneyAllowZero(v); err != nil {
			return core.Budget{}, fmt.Errorf("spent: %w", err)
		}
	}
	b := core.Budget{
		Category: sanitizeInput(r.PostForm.Get("category")),
		Limit:    limit,
		Spent:    spent,
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	b.Status = b.ComputeStatus()
	return b, nil
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSubject(w, r); !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	if err := s.api.DeleteBudget(ctx, core.ID(chi.URLParam(r, "id"))); err != nil {
		s.handleAPIError(w, r, log.OpDelete, "budget", err)
		return
	}
	s.done(w, r, "/budgets", "deleted", nil, "budget", "Budget deleted")
}
