package http

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const recentTransactions = 5

type dashboardData struct {
	Period   string
	Warnings []string
	Report   core.Report
	Debts    core.DebtSummary
	Budgets  []core.Budget
	Recent   []core.Transaction
}

// handleDashboard fetches transactions, budgets and debts in parallel. A
// failing section is reported as a warning; the rest still renders.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	var (
		txs                    []core.Transaction
		budgets                []core.Budget
		debts                  []core.Debt
		txErr, budErr, debtErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		txs, txErr = s.api.ListTransactions(ctx, userID)
		return txErr
	})
	g.Go(func() error {
		budgets, budErr = s.api.ListBudgets(ctx, userID)
		return budErr
	})
	g.Go(func() error {
		debts, debtErr = s.api.ListDebts(ctx, userID)
		return debtErr
	})
	_ = g.Wait() // each section's error is inspected below

	now := s.now()
	data := dashboardData{Period: now.Format("January 2006")}
	for _, section := range []struct {
		name string
		err  error
	}{
		{"transactions", txErr},
		{"budgets", budErr},
		{"debts", debtErr},
	} {
		if section.err == nil {
			continue
		}
		if errors.Is(section.err, api.ErrUnauthorized) {
			s.handleAPIError(w, r, log.OpList, section.name, section.err)
			return
		}
		s.warnSection(ctx, section.name, section.err)
		data.Warnings = append(data.Warnings, "Could not load "+section.name+": "+api.UserMessage(section.err))
	}

	data.Report = core.Summarize(txs, now.Year(), int(now.Month()))
	data.Debts = core.SummarizeDebts(debts, now)
	data.Budgets = budgets
	month := core.TransactionFilter{Date: now.Format("2006-01")}.Apply(txs)
	data.Recent = core.Recent(month, recentTransactions)

	s.render(w, r, http.StatusOK, "dashboard_page", s.pageFor(r, "Dashboard", "dashboard", data))
}

func (s *Server) warnSection(ctx context.Context, section string, err error) {
	log.FromContext(ctx).WarnContext(ctx, "Dashboard section unavailable",
		log.FieldResource, section,
		log.FieldError, err)
}

type reportData struct {
	Report core.Report
	Months []int
}

// handleReports summarizes the transactions of a year, or of one month.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	period := ParseMonthParams(r.URL.Query(), s.now())
	txs, err := s.api.ListTransactions(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpList, "transactions", err)
		return
	}

	data := reportData{
		Report: core.Summarize(txs, period.Year, period.Month),
		Months: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}
	s.render(w, r, http.StatusOK, "reports_page", s.pageFor(r, "Reports", "reports", data))
}
