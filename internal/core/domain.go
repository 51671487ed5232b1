package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and form format of calendar dates.
const DateLayout = "2006-01-02"

type (
	// ID identifies a record on the finance API. The API uses both numeric
	// and string identifiers; numeric ones are written back as numbers.
	ID string

	Date struct {
		time.Time
	}

	// CategoryType tells income categories from expense ones.
	CategoryType string

	Category struct {
		ID   ID           `json:"id,omitempty"`
		Name string       `json:"name"`
		Type CategoryType `json:"type"`
	}

	Transaction struct {
		ID       ID           `json:"id,omitempty"`
		Date     Date         `json:"date"`
		Category string       `json:"category"`
		Amount   Money        `json:"amount"`
		Notes    string       `json:"notes"`
		Type     CategoryType `json:"type"`
	}

	BudgetStatus string

	Budget struct {
		ID       ID           `json:"id,omitempty"`
		Category string       `json:"category"`
		Limit    Money        `json:"limit"`
		Spent    Money        `json:"spent"`
		Status   BudgetStatus `json:"status,omitempty"`
	}

	DebtStatus string

	Debt struct {
		ID      ID         `json:"id,omitempty"`
		Lender  string     `json:"lender"`
		Amount  Money      `json:"amount"`
		DueDate Date       `json:"dueDate"`
		Status  DebtStatus `json:"status,omitempty"`
	}

	// User is the account profile served by the finance API.
	User struct {
		ID           ID     `json:"id,omitempty"`
		FullName     string `json:"fullName"`
		Username     string `json:"username"`
		Email        string `json:"email"`
		Password     string `json:"password,omitempty"`
		SavingsGoal  Money  `json:"savingsGoal"`
		ExpenseLimit Money  `json:"expenseLimit"`
		Theme        string `json:"theme,omitempty"`
	}

	// Registration is the sign-up form payload.
	Registration struct {
		FullName string `json:"fullName"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
)

const (
	BudgetWithin   BudgetStatus = "within"
	BudgetWarning  BudgetStatus = "warning"
	BudgetExceeded BudgetStatus = "exceeded"
)

const (
	DebtDue     DebtStatus = "due"
	DebtPaid    DebtStatus = "paid"
	DebtOverdue DebtStatus = "overdue"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidType      = errors.New("invalid type: must be income or expense")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyLender      = errors.New("empty lender")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrEmptyUsername    = errors.New("empty username")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrPasswordTooShort = errors.New("password too short (min 6 characters)")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
)

// warningRatio is the share of a budget limit at which spending is flagged.
var warningRatio = decimal.New(8, -1)

// String implements fmt.Stringer
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(id)) && isNumeric(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid id %s: %w", b, err)
		}
		*id = ID(n.String())
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts YYYY-MM-DD, RFC 3339 timestamps, "" and null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	y, m, day := t.Date()
	*d = NewDate(y, int(m), day)
	return nil
}

// IsValid returns true if the category type is known
func (ct CategoryType) IsValid() bool {
	return ct == Income || ct == Expense
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if utf8.RuneCountInString(t.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}

// Signed returns the amount with expenses negative and income positive,
// whatever sign the API stored it with.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}

// TransactionFilter narrows a transaction list. Zero fields match
// everything.
type TransactionFilter struct {
	Type      CategoryType
	Category  string
	Date      string // substring of YYYY-MM-DD, e.g. "2025-02"
	MinAmount Money
	MaxAmount Money
}

// Match reports whether t passes every set criterion. Amount bounds are
// compared against the signed amount.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Date != "" && !strings.Contains(t.Date.String(), f.Date) {
		return false
	}
	signed := t.Signed()
	if !f.MinAmount.IsZero() && signed.Cmp(f.MinAmount) < 0 {
		return false
	}
	if !f.MaxAmount.IsZero() && signed.Cmp(f.MaxAmount) > 0 {
		return false
	}
	return true
}

// Apply returns the transactions matching f, preserving order.
func (f TransactionFilter) Apply(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// ComputeStatus bands spending against the limit: above it is exceeded,
// from 80% of it is warning, below that within.
func (b Budget) ComputeStatus() BudgetStatus {
	if b.Spent.Cmp(b.Limit) > 0 {
		return BudgetExceeded
	}
	threshold := b.Limit.Amount.Mul(warningRatio)
	if b.Spent.Amount.GreaterThanOrEqual(threshold) {
		return BudgetWarning
	}
	return BudgetWithin
}

// Progress returns spent as a percentage of the limit.
func (b Budget) Progress() float64 {
	f, _ := b.Spent.Percent(b.Limit).Float64()
	return f
}

// Remaining returns limit minus spent; negative when exceeded.
func (b Budget) Remaining() Money {
	return b.Limit.Sub(b.Spent)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Limit.IsPositive() {
		return fmt.Errorf("limit: %w", ErrInvalidAmount)
	}
	if b.Spent.IsNegative() {
		return fmt.Errorf("spent: %w", ErrInvalidAmount)
	}
	return nil
}

// IsValid returns true if the debt status is known
func (s DebtStatus) IsValid() bool {
	switch s {
	case DebtDue, DebtPaid, DebtOverdue:
		return true
	default:
		return false
	}
}

// ComputeStatus returns the status of d at now. A paid debt stays paid;
// otherwise a due date before today is overdue.
func (d Debt) ComputeStatus(now time.Time) DebtStatus {
	if d.Status == DebtPaid {
		return DebtPaid
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if d.DueDate.Time.Before(today) {
		return DebtOverdue
	}
	return DebtDue
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Lender) == "" {
		return ErrEmptyLender
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if err := d.DueDate.Validate(); err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	if d.Status != "" && !d.Status.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(r.Username) == "" {
		return ErrEmptyUsername
	}
	if !looksLikeEmail(r.Email) {
		return ErrInvalidEmail
	}
	if utf8.RuneCountInString(r.Password) < 6 {
		return ErrPasswordTooShort
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.FullName) == "" {
		return ErrEmptyName
	}
	if !looksLikeEmail(u.Email) {
		return ErrInvalidEmail
	}
	if u.Password != "" && utf8.RuneCountInString(u.Password) < 6 {
		return ErrPasswordTooShort
	}
	if u.SavingsGoal.IsNegative() || u.ExpenseLimit.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func looksLikeEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}
