package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type filterForm struct {
	Type, Category, Date, Min, Max string
}

type transactionsData struct {
	Today        string
	Types        []core.CategoryType
	Categories   []core.Category
	Filter       filterForm
	Transactions []core.Transaction
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	txs, err := s.api.ListTransactions(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpList, "transactions", err)
		return
	}
	cats, err := s.loadCategories(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpList, "categories", err)
		return
	}

	q := r.URL.Query()
	filter := ParseFilter(q)
	data := transactionsData{
		Today:      s.today().String(),
		Types:      transactionTypes,
		Categories: cats,
		Filter: filterForm{
			Type:     string(filter.Type),
			Category: filter.Category,
			Date:     filter.Date,
			Min:      sanitizeInput(q.Get("min")),
			Max:      sanitizeInput(q.Get("max")),
		},
		Transactions: core.Recent(filter.Apply(txs), -1),
	}
	s.render(w, r, http.StatusOK, "transactions_page", s.pageFor(r, "Transactions", "transactions", data))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
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

	tx, err := transactionFromForm(r)
	if err != nil {
		s.invalid(w, r, err)
		return
	}
	if _, err := s.api.CreateTransaction(ctx, userID, tx); err != nil {
		s.handleAPIError(w, r, log.OpCreate, "transaction", err)
		return
	}

	s.done(w, r, "/transactions", "created", func() (string, any, error) {
		txs, err := s.api.ListTransactions(ctx, userID)
		return "transaction_rows", core.Recent(txs, -1), err
	}, "transaction", "Transaction added")
}

func transactionFromForm(r *http.Request) (core.Transaction, error) {
	date, err := core.ParseDate(r.PostForm.Get("date"))
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseMoney(r.PostForm.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Date:     date,
		Category: sanitizeInput(r.PostForm.Get("category")),
		Amount:   amount,
		Notes:    sanitizeInput(r.PostForm.Get("notes")),
		Type:     core.CategoryType(sanitizeInput(r.PostForm.Get("type"))),
	}
	return tx, tx.Validate()
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireSubject(w, r); !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	id := core.ID(chi.URLParam(r, "id"))
	if err := s.api.DeleteTransaction(ctx, id); err != nil {
		s.handleAPIError(w, r, log.OpDelete, "transaction", err)
		return
	}
	s.done(w, r, "/transactions", "deleted", nil, "transaction", "Transaction deleted")
}
