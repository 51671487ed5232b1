package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	cases := map[string]string{
		`"2025-02-05"`:                "2025-02-05",
		`"2025-02-05T23:30:00+07:00"`: "2025-02-05",
		`""`:                          "",
		`null`:                        "",
	}
	for in, want := range cases {
		var d Date
		if err := json.Unmarshal([]byte(in), &d); err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if d.String() != want {
			t.Fatalf("%s: expected %q, got %q", in, want, d.String())
		}
	}

	var d Date
	if err := json.Unmarshal([]byte(`"05/02/2025"`), &d); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	b, _ := json.Marshal(NewDate(2025, 3, 9))
	if string(b) != `"2025-03-09"` {
		t.Fatalf("unexpected marshal %s", b)
	}
}

func TestIDJSON(t *testing.T) {
	var c Category
	if err := json.Unmarshal([]byte(`{"id":17,"name":"Food","type":"expense"}`), &c); err != nil {
		t.Fatal(err)
	}
	if c.ID != "17" {
		t.Fatalf("expected id 17, got %q", c.ID)
	}
	b, _ := json.Marshal(c)
	if string(b) != `{"id":17,"name":"Food","type":"expense"}` {
		t.Fatalf("numeric id not written back as number: %s", b)
	}

	if err := json.Unmarshal([]byte(`{"id":"65f0c1","name":"Pay","type":"income"}`), &c); err != nil {
		t.Fatal(err)
	}
	b, _ = json.Marshal(c)
	if string(b) != `{"id":"65f0c1","name":"Pay","type":"income"}` {
		t.Fatalf("string id not preserved: %s", b)
	}

	b, _ = json.Marshal(Category{Name: "New", Type: Expense})
	if string(b) != `{"name":"New","type":"expense"}` {
		t.Fatalf("empty id should be omitted: %s", b)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food", Type: Expense}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: " ", Type: Expense}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Category{Name: "Food", Type: "other"}).Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Date: NewDate(2025, 2, 5), Category: "Food", Amount: MoneyFromCents(1500), Type: Expense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Category: "Food", Amount: MoneyFromCents(1), Type: Expense},
		{Date: NewDate(2025, 1, 1), Amount: MoneyFromCents(1), Type: Expense},
		{Date: NewDate(2025, 1, 1), Category: "Food", Type: Expense},
		{Date: NewDate(2025, 1, 1), Category: "Food", Amount: MoneyFromCents(1)},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionFilter(t *testing.T) {
	txs := []Transaction{
		{ID: "1", Date: NewDate(2025, 2, 5), Category: "Shopping", Amount: MoneyFromCents(-15000), Type: Expense},
		{ID: "2", Date: NewDate(2025, 2, 1), Category: "Salary", Amount: MoneyFromCents(250000), Type: Income},
		{ID: "3", Date: NewDate(2025, 3, 3), Category: "Food", Amount: MoneyFromCents(10000), Type: Expense},
	}

	cases := []struct {
		name   string
		filter TransactionFilter
		want   []ID
	}{
		{"empty filter", TransactionFilter{}, []ID{"1", "2", "3"}},
		{"by type", TransactionFilter{Type: Expense}, []ID{"1", "3"}},
		{"by category", TransactionFilter{Category: "Salary"}, []ID{"2"}},
		{"by month substring", TransactionFilter{Date: "2025-02"}, []ID{"1", "2"}},
		{"min signed amount", TransactionFilter{MinAmount: MoneyFromCents(-12000)}, []ID{"2", "3"}},
		{"max signed amount", TransactionFilter{MaxAmount: MoneyFromCents(-12000)}, []ID{"1"}},
		{"combined", TransactionFilter{Type: Expense, Date: "2025-03"}, []ID{"3"}},
	}
	for _, tc := range cases {
		got := tc.filter.Apply(txs)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %d results", tc.name, tc.want, len(got))
		}
		for i := range got {
			if got[i].ID != tc.want[i] {
				t.Fatalf("%s: expected %v at %d, got %s", tc.name, tc.want[i], i, got[i].ID)
			}
		}
	}
}

func TestBudgetComputeStatus(t *testing.T) {
	cases := []struct {
		limit, spent int64
		want         BudgetStatus
	}{
		{500000, 150000, BudgetWithin},
		{200000, 180000, BudgetWarning},
		{100000, 110000, BudgetExceeded},
		{100000, 80000, BudgetWarning}, // exactly 80%
		{100000, 79999, BudgetWithin},
		{100000, 100000, BudgetWarning}, // at the limit is not exceeded
		{100000, 0, BudgetWithin},
	}
	for _, tc := range cases {
		b := Budget{Category: "c", Limit: MoneyFromCents(tc.limit), Spent: MoneyFromCents(tc.spent)}
		if got := b.ComputeStatus(); got != tc.want {
			t.Fatalf("limit %d spent %d: expected %s, got %s", tc.limit, tc.spent, tc.want, got)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (Budget{Category: "Food", Limit: MoneyFromCents(100)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Budget{Limit: MoneyFromCents(100)}).Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if err := (Budget{Category: "Food"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero limit, got %v", err)
	}
	if err := (Budget{Category: "Food", Limit: MoneyFromCents(1), Spent: MoneyFromCents(-1)}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative spent, got %v", err)
	}
}

func TestDebtComputeStatus(t *testing.T) {
	now := time.Date(2025, 2, 10, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		due    Date
		status DebtStatus
		want   DebtStatus
	}{
		{NewDate(2025, 2, 9), DebtDue, DebtOverdue},
		{NewDate(2025, 2, 10), DebtDue, DebtDue},
		{NewDate(2025, 3, 5), "", DebtDue},
		{NewDate(2025, 1, 1), DebtPaid, DebtPaid},
		{NewDate(2025, 3, 5), DebtOverdue, DebtDue},
	}
	for i, tc := range cases {
		d := Debt{Lender: "A", Amount: MoneyFromCents(100), DueDate: tc.due, Status: tc.status}
		if got := d.ComputeStatus(now); got != tc.want {
			t.Fatalf("case %d: expected %s, got %s", i, tc.want, got)
		}
	}
}

func TestDebtValidate(t *testing.T) {
	good := Debt{Lender: "A", Amount: MoneyFromCents(500000), DueDate: NewDate(2025, 2, 10)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Debt{
		{Amount: MoneyFromCents(1), DueDate: NewDate(2025, 1, 1)},
		{Lender: "A", DueDate: NewDate(2025, 1, 1)},
		{Lender: "A", Amount: MoneyFromCents(1)},
		{Lender: "A", Amount: MoneyFromCents(1), DueDate: NewDate(2025, 1, 1), Status: "forgiven"},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRegistrationValidate(t *testing.T) {
	good := Registration{FullName: "An Nguyen", Username: "an", Email: "an@example.com", Password: "secret1"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.Email = "not-an-email"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}

	bad = good
	bad.Password = "123"
	if err := bad.Validate(); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
}
