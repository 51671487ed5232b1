package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type debtsData struct {
	Summary core.DebtSummary
	Today   string
	Debts   []core.Debt
}

// listDebts returns the debts of userID with their status computed for today.
func (s *Server) listDebts(ctx context.Context, userID string) ([]core.Debt, error) {
	debts, err := s.api.ListDebts(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range debts {
		debts[i].Status = debts[i].ComputeStatus(now)
	}
	return debts, nil
}

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	debts, err := s.listDebts(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpList, "debts", err)
		return
	}
	data := debtsData{
		Summary: core.SummarizeDebts(debts, s.now()),
		Today:   s.today().String(),
		Debts:   debts,
	}
	s.render(w, r, http.StatusOK, "debts_page", s.pageFor(r, "Debts", "debts", data))
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
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

	amount, err := core.ParseMoney(r.PostForm.Get("amount"))
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	due, err := core.ParseDate(r.PostForm.Get("dueDate"))
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	d := core.Debt{
		Lender:  sanitizeInput(r.PostForm.Get("lender")),
		Amount:  amount,
		DueDate: due,
	}
	if err := d.Validate(); err != nil {
		s.invalid(w, r, err)
		return
	}
	d.Status = d.ComputeStatus(s.now())

	if _, err := s.api.CreateDebt(ctx, userID, d); err != nil {
		s.handleAPIError(w, r, log.OpCreate, "debt", err)
		return
	}
	s.done(w, r, "/debts", "created", s.debtRows(ctx, userID), "debt", "Debt added")
}

// handleMarkDebtPaid settles a debt. The API replaces whole records, so the
// current one is read first.
func (s *Server) handleMarkDebtPaid(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	id := core.ID(chi.URLParam(r, "id"))
	debts, err := s.api.ListDebts(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpRead, "debt", err)
		return
	}

	var debt *core.Debt
	for i := range debts {
		if debts[i].ID == id {
			debt = &debts[i]
			break
		}
	}
	if debt == nil {
		s.fail(w, r, http.StatusNotFound, "This debt no longer exists.")
		return
	}

	debt.Status = core.DebtPaid
	if err := s.api.UpdateDebt(ctx, *debt); err != nil {
		s.handleAPIError(w, r, log.OpUpdate, "debt", err)
		return
	}
	s.done(w, r, "/debts", "paid", s.debtRows(ctx, userID), "debt", "Debt marked as paid")
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSubject(w, r); !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	if err := s.api.DeleteDebt(ctx, core.ID(chi.URLParam(r, "id"))); err != nil {
		s.handleAPIError(w, r, log.OpDelete, "debt", err)
		return
	}
	s.done(w, r, "/debts", "deleted", nil, "debt", "Debt deleted")
}

func (s *Server) debtRows(ctx context.Context, userID string) func() (string, any, error) {
	return func() (string, any, error) {
		debts, err := s.listDebts(ctx, userID)
		return "debt_rows", debts, err
	}
}
