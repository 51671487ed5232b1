package core

import (
	"sort"
	"time"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string
	Type    CategoryType
	Amount  Money
	Percent float64 // share of the total of the same type
}

// MonthTotals holds income and expense totals of one month.
type MonthTotals struct {
	Month   int // 1-12
	Income  Money
	Expense Money
}

// Saving is income minus expense.
func (m MonthTotals) Saving() Money {
	return m.Income.Sub(m.Expense)
}

// Report is a compact financial summary for a year, or for one month of it.
type Report struct {
	Year       int
	Month      int // 1-12, or 0 for the whole year
	Income     Money
	Expense    Money
	ByCategory []CategoryAmount
	Months     []MonthTotals // all twelve months of Year
	Count      int
}

// Balance is income minus expense over the report period.
func (r Report) Balance() Money {
	return r.Income.Sub(r.Expense)
}

// Summarize builds the report of txs for year and month (0 = whole year).
// Expense totals are positive amounts.
func Summarize(txs []Transaction, year, month int) Report {
	r := Report{Year: year, Month: month, Months: make([]MonthTotals, 12)}
	for i := range r.Months {
		r.Months[i].Month = i + 1
	}

	type key struct {
		name string
		typ  CategoryType
	}
	byCat := make(map[key]Money)

	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		amount := t.Amount.Abs()
		mt := &r.Months[t.Date.Month()-1]
		if t.Type == Income {
			mt.Income = mt.Income.Add(amount)
		} else {
			mt.Expense = mt.Expense.Add(amount)
		}

		if month != 0 && t.Date.Month() != month {
			continue
		}
		r.Count++
		if t.Type == Income {
			r.Income = r.Income.Add(amount)
		} else {
			r.Expense = r.Expense.Add(amount)
		}
		k := key{name: t.Category, typ: t.Type}
		byCat[k] = byCat[k].Add(amount)
	}

	for k, amount := range byCat {
		total := r.Expense
		if k.typ == Income {
			total = r.Income
		}
		pct, _ := amount.Percent(total).Float64()
		r.ByCategory = append(r.ByCategory, CategoryAmount{
			Name:    k.name,
			Type:    k.typ,
			Amount:  amount,
			Percent: pct,
		})
	}
	sort.Slice(r.ByCategory, func(i, j int) bool {
		a, b := r.ByCategory[i], r.ByCategory[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.Name < b.Name
	})

	return r
}

// Recent returns up to n transactions, newest first.
func Recent(txs []Transaction, n int) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DebtSummary totals outstanding debts at now.
type DebtSummary struct {
	Outstanding Money
	Overdue     Money
	OverdueN    int
}

// SummarizeDebts totals the unpaid debts, with overdue ones split out.
func SummarizeDebts(debts []Debt, now time.Time) DebtSummary {
	var s DebtSummary
	for _, d := range debts {
		switch d.ComputeStatus(now) {
		case DebtPaid:
			continue
		case DebtOverdue:
			s.Overdue = s.Overdue.Add(d.Amount)
			s.OverdueN++
		}
		s.Outstanding = s.Outstanding.Add(d.Amount)
	}
	return s
}
