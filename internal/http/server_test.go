package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// fakeAPI is an in-memory FinanceAPI. Zero values answer with empty lists.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	token   string
	authErr error

	user         core.User
	categories   []core.Category
	transactions []core.Transaction
	budgets      []core.Budget
	debts        []core.Debt

	listErr   map[string]error
	createErr error
	pingErr   error

	createdTx   []core.Transaction
	updatedDebt []core.Debt
	deleted     []core.ID
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}, listErr: map[string]error{}}
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Authenticate(context.Context, string, string) (string, error) {
	f.record("Authenticate")
	return f.token, f.authErr
}

func (f *fakeAPI) Register(context.Context, core.Registration) error {
	f.record("Register")
	return f.createErr
}

func (f *fakeAPI) GetUser(context.Context, string) (core.User, error) {
	f.record("GetUser")
	return f.user, f.listErr["user"]
}

func (f *fakeAPI) UpdateUser(_ context.Context, _ string, u core.User) error {
	f.record("UpdateUser")
	f.user = u
	return nil
}

func (f *fakeAPI) DeleteUser(context.Context, string) error {
	f.record("DeleteUser")
	return nil
}

func (f *fakeAPI) ListCategories(context.Context, string) ([]core.Category, error) {
	f.record("ListCategories")
	return f.categories, f.listErr["categories"]
}

func (f *fakeAPI) CreateCategory(_ context.Context, _ string, c core.Category) (core.Category, error) {
	f.record("CreateCategory")
	f.mu.Lock()
	f.categories = append(f.categories, c)
	f.mu.Unlock()
	return c, f.createErr
}

func (f *fakeAPI) UpdateCategory(context.Context, core.Category) error {
	f.record("UpdateCategory")
	return nil
}

func (f *fakeAPI) DeleteCategory(_ context.Context, id core.ID) error {
	f.record("DeleteCategory")
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) ListTransactions(context.Context, string) ([]core.Transaction, error) {
	f.record("ListTransactions")
	return f.transactions, f.listErr["transactions"]
}

func (f *fakeAPI) CreateTransaction(_ context.Context, _ string, tx core.Transaction) (core.Transaction, error) {
	f.record("CreateTransaction")
	f.createdTx = append(f.createdTx, tx)
	return tx, f.createErr
}

func (f *fakeAPI) DeleteTransaction(_ context.Context, id core.ID) error {
	f.record("DeleteTransaction")
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) ListBudgets(context.Context, string) ([]core.Budget, error) {
	f.record("ListBudgets")
	return f.budgets, f.listErr["budgets"]
}

func (f *fakeAPI) CreateBudget(_ context.Context, _ string, b core.Budget) (core.Budget, error) {
	f.record("CreateBudget")
	return b, f.createErr
}

func (f *fakeAPI) DeleteBudget(_ context.Context, id core.ID) error {
	f.record("DeleteBudget")
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) ListDebts(context.Context, string) ([]core.Debt, error) {
	f.record("ListDebts")
	return f.debts, f.listErr["debts"]
}

func (f *fakeAPI) CreateDebt(_ context.Context, _ string, d core.Debt) (core.Debt, error) {
	f.record("CreateDebt")
	return d, f.createErr
}

func (f *fakeAPI) UpdateDebt(_ context.Context, d core.Debt) error {
	f.record("UpdateDebt")
	f.updatedDebt = append(f.updatedDebt, d)
	return nil
}

func (f *fakeAPI) DeleteDebt(_ context.Context, id core.ID) error {
	f.record("DeleteDebt")
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) Ping(context.Context) error {
	return f.pingErr
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

type storeState int

const (
	stateUnknown storeState = iota
	stateSignedOut
	stateSignedIn
)

func newTestServer(t *testing.T, fake *fakeAPI, state storeState, cfg ...Config) (*Server, *session.Store) {
	t.Helper()

	store := session.NewStore(session.NewMemoryStorage(), session.WithLogger(log.Discard()))
	switch state {
	case stateSignedOut:
		store.Initialize(context.Background())
	case stateSignedIn:
		require.NoError(t, store.Login(context.Background(), signedToken(t, "7")))
	}

	c := Config{Addr: ":0", CacheSize: 10, CacheTTL: time.Minute}
	if len(cfg) > 0 {
		c = cfg[0]
	}
	srv, err := NewServer(c, store, fake, log.Discard(), WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func serve(srv *Server, method, target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	fake := newFakeAPI()
	storageErr := error(nil)
	srv, _ := newTestServer(t, fake, stateSignedOut, Config{
		CacheSize:   10,
		CacheTTL:    time.Minute,
		StoragePing: func(context.Context) error { return storageErr },
	})

	rr := serve(srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
	assert.Contains(t, rr.Body.String(), `"requests":`)

	rr = serve(srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"finance_api":"ok"`)
	assert.Contains(t, rr.Body.String(), `"session":"unauthenticated"`)

	fake.pingErr = api.ErrUnavailable
	rr = serve(srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"not_ready"`)

	fake.pingErr = nil
	storageErr = errors.New("disk full")
	rr = serve(srv, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "disk full")
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t, newFakeAPI(), stateSignedOut)

	rr := serve(srv, http.MethodGet, "/login", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
	assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, newFakeAPI(), stateSignedOut)

	rr := serve(srv, http.MethodGet, "/static/app.css", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Cache-Control"), "max-age=3600")
}

func TestGuard_ProtectedRoutes(t *testing.T) {
	paths := []string{"/", "/dashboard", "/transactions", "/categories", "/budgets", "/debts", "/reports", "/profile", "/settings"}

	t.Run("signed out is redirected to login", func(t *testing.T) {
		fake := newFakeAPI()
		srv, _ := newTestServer(t, fake, stateSignedOut)
		for _, p := range paths {
			rr := serve(srv, http.MethodGet, p, nil)
			assert.Equal(t, http.StatusSeeOther, rr.Code, p)
			assert.Equal(t, "/login", rr.Header().Get("Location"), p)
		}
		assert.Zero(t, fake.count("ListTransactions"))
	})

	t.Run("htmx requests replace the url", func(t *testing.T) {
		srv, _ := newTestServer(t, newFakeAPI(), stateSignedOut)
		rr := serve(srv, http.MethodGet, "/transactions", nil, "HX-Request", "true")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("HX-Redirect"))
		assert.Equal(t, "/login", rr.Header().Get("HX-Replace-Url"))
	})

	t.Run("unknown status shows the placeholder", func(t *testing.T) {
		fake := newFakeAPI()
		srv, _ := newTestServer(t, fake, stateUnknown)
		rr := serve(srv, http.MethodGet, "/dashboard", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Checking session")
		assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
		assert.Zero(t, fake.count("ListTransactions"))
	})
}

func TestUnknownPaths(t *testing.T) {
	signedOut, _ := newTestServer(t, newFakeAPI(), stateSignedOut)
	rr := serve(signedOut, http.MethodGet, "/no/such/page", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))

	signedIn, _ := newTestServer(t, newFakeAPI(), stateSignedIn)
	rr = serve(signedIn, http.MethodGet, "/no/such/page", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestLogin(t *testing.T) {
	t.Run("success starts the session", func(t *testing.T) {
		fake := newFakeAPI()
		fake.token = signedToken(t, "42")
		fake.user = core.User{Theme: "dark"}
		srv, store := newTestServer(t, fake, stateSignedOut)

		rr := serve(srv, http.MethodPost, "/login", url.Values{"username": {"an"}, "password": {"secret"}})

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
		assert.True(t, store.IsAuthenticated())
		assert.Equal(t, "42", store.State().Subject)
		})

	t.Run("wrong credentials", func(t *testing.T) {
		fake := newFakeAPI()
		fake.authErr = &api.StatusError{Code: 401, Err: api.ErrUnauthorized}
		srv, store := newTestServer(t, fake, stateSignedOut)

		rr := serve(srv, http.MethodPost, "/login", url.Values{"username": {"an"}, "password": {"bad"}})

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid username or password.")
		assert.Contains(t, rr.Body.String(), `value="an"`)
		assert.False(t, store.IsAuthenticated())
	})

	t.Run("missing fields", func(t *testing.T) {
		fake := newFakeAPI()
		srv, _ := newTestServer(t, fake, stateSignedOut)

		rr := serve(srv, http.MethodPost, "/login", url.Values{"username": {"an"}})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Zero(t, fake.count("Authenticate"))
	})

	t.Run("api without token", func(t *testing.T) {
		fake := newFakeAPI()
		srv, store := newTestServer(t, fake, stateSignedOut)

		rr := serve(srv, http.MethodPost, "/login", url.Values{"username": {"an"}, "password": {"x"}})

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.False(t, store.IsAuthenticated())
	})

	t.Run("form redirects when signed in", func(t *testing.T) {
		srv, _ := newTestServer(t, newFakeAPI(), stateSignedIn)

		rr := serve(srv, http.MethodGet, "/login", nil)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
	})
}

func TestLogin_RateLimited(t *testing.T) {
	fake := newFakeAPI()
	fake.authErr = &api.StatusError{Code: 401, Err: api.ErrUnauthorized}
	srv, _ := newTestServer(t, fake, stateSignedOut, Config{CacheSize: 10, CacheTTL: time.Minute, LoginRateLimit: 2})

	form := url.Values{"username": {"an"}, "password": {"x"}}
	serve(srv, http.MethodPost, "/login", form)
	serve(srv, http.MethodPost, "/login", form)
	rr := serve(srv, http.MethodPost, "/login", form)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, 2, fake.count("Authenticate"))
}

func TestRegister(t *testing.T) {
	fake := newFakeAPI()
	srv, _ := newTestServer(t, fake, stateSignedOut)

	rr := serve(srv, http.MethodPost, "/register", url.Values{
		"fullName": {"An Nguyen"}, "username": {"an"}, "email": {"an@example.com"}, "password": {"secret1"},
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?flash=registered", rr.Header().Get("Location"))

	rr = serve(srv, http.MethodPost, "/register", url.Values{
		"fullName": {"An"}, "username": {"an"}, "email": {"nope"}, "password": {"secret1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret1")
	assert.Equal(t, 1, fake.count("Register"))
}

func TestLogout(t *testing.T) {
	srv, store := newTestServer(t, newFakeAPI(), stateSignedIn)

	rr := serve(srv, http.MethodGet, "/logout", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.True(t, store.IsAuthenticated())

	rr = serve(srv, http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?flash=logout", rr.Header().Get("Location"))
	assert.False(t, store.IsAuthenticated())
}

func TestDashboard(t *testing.T) {
	fake := newFakeAPI()
	fake.transactions = []core.Transaction{
		{ID: "1", Date: core.NewDate(2026, 3, 2), Category: "Salary", Amount: core.MoneyFromCents(150000), Type: core.Income},
		{ID: "2", Date: core.NewDate(2026, 3, 5), Category: "Food", Amount: core.MoneyFromCents(2550), Type: core.Expense},
		{ID: "3", Date: core.NewDate(2026, 2, 5), Category: "Food", Amount: core.MoneyFromCents(9900), Type: core.Expense},
	}
	fake.debts = []core.Debt{
		{ID: "9", Lender: "Bank", Amount: core.MoneyFromCents(50000), DueDate: core.NewDate(2026, 3, 1)},
	}
	fake.listErr["budgets"] = &api.StatusError{Code: 503, Err: api.ErrUnavailable}
	srv, _ := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodGet, "/dashboard", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "March 2026")
	assert.Contains(t, body, "1,500.00")
	assert.Contains(t, body, "-25.50")
	assert.NotContains(t, body, "-99.00")
	assert.Contains(t, body, "1 overdue")
	assert.Contains(t, body, "Could not load budgets")
	assert.Equal(t, 1, fake.count("ListBudgets"))
}

func TestProtectedCall_RejectedTokenLogsOut(t *testing.T) {
	fake := newFakeAPI()
	fake.listErr["categories"] = &api.StatusError{Code: 401, Message: "jwt expired", Err: api.ErrUnauthorized}
	srv, store := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodGet, "/categories", nil)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	assert.False(t, store.IsAuthenticated())
}

func TestProtectedCall_APIFailure(t *testing.T) {
	fake := newFakeAPI()
	fake.listErr["debts"] = &api.StatusError{Code: 500, Err: api.ErrUnavailable}
	srv, store := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodGet, "/debts", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "unreachable")
	assert.True(t, store.IsAuthenticated())

	rr = serve(srv, http.MethodPost, "/debts/1/paid", nil, "HX-Request", "true")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "#form-errors", rr.Header().Get("HX-Retarget"))
}

func TestCreateTransaction(t *testing.T) {
	form := url.Values{
		"date": {"2026-03-10"}, "type": {"expense"}, "category": {"Food"}, "amount": {"12,50"}, "notes": {"lunch"},
	}

	t.Run("plain form redirects", func(t *testing.T) {
		fake := newFakeAPI()
		srv, _ := newTestServer(t, fake, stateSignedIn)

		rr := serve(srv, http.MethodPost, "/transactions", form)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/transactions?flash=created", rr.Header().Get("Location"))
		require.Len(t, fake.createdTx, 1)
		assert.Equal(t, int64(1250), fake.createdTx[0].Amount.Cents())
		assert.Equal(t, "2026-03-10", fake.createdTx[0].Date.String())
	})

	t.Run("htmx gets the refreshed rows", func(t *testing.T) {
		fake := newFakeAPI()
		fake.transactions = []core.Transaction{
			{ID: "5", Date: core.NewDate(2026, 3, 10), Category: "Food", Amount: core.MoneyFromCents(1250), Type: core.Expense},
		}
		srv, _ := newTestServer(t, fake, stateSignedIn)

		rr := serve(srv, http.MethodPost, "/transactions", form, "HX-Request", "true")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "/transactions/5")
		assert.Contains(t, rr.Header().Get("HX-Trigger"), "form:reset")
		assert.NotContains(t, rr.Body.String(), "<html")
	})

	t.Run("invalid amount", func(t *testing.T) {
		fake := newFakeAPI()
		srv, _ := newTestServer(t, fake, stateSignedIn)

		bad := url.Values{"date": {"2026-03-10"}, "type": {"expense"}, "category": {"Food"}, "amount": {"abc"}}
		rr := serve(srv, http.MethodPost, "/transactions", bad, "HX-Request", "true")

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid amount")
		assert.Zero(t, fake.count("CreateTransaction"))
	})
}

func TestTransactions_Filter(t *testing.T) {
	fake := newFakeAPI()
	fake.transactions = []core.Transaction{
		{ID: "1", Date: core.NewDate(2026, 3, 2), Category: "Salary", Amount: core.MoneyFromCents(150000), Type: core.Income},
		{ID: "2", Date: core.NewDate(2026, 3, 5), Category: "Food", Amount: core.MoneyFromCents(2550), Type: core.Expense},
	}
	srv, _ := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodGet, "/transactions?type=expense", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/transactions/2")
	assert.NotContains(t, rr.Body.String(), "/transactions/1/delete")
}

func TestDeleteTransaction(t *testing.T) {
	fake := newFakeAPI()
	srv, _ := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodDelete, "/transactions/8", nil, "HX-Request", "true")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = serve(srv, http.MethodPost, "/transactions/9/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/transactions?flash=deleted", rr.Header().Get("Location"))

	assert.Equal(t, []core.ID{"8", "9"}, fake.deleted)
}

func TestCategories_Cache(t *testing.T) {
	fake := newFakeAPI()
	fake.categories = []core.Category{{ID: "1", Name: "Food", Type: core.Expense}}
	srv, store := newTestServer(t, fake, stateSignedIn)

	serve(srv, http.MethodGet, "/categories", nil)
	serve(srv, http.MethodGet, "/categories", nil)
	assert.Equal(t, 1, fake.count("ListCategories"))

	rr := serve(srv, http.MethodPost, "/categories", url.Values{"name": {"Rent"}, "type": {"expense"}}, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Rent")
	assert.Equal(t, 2, fake.count("ListCategories"))

	// A new session must not see the previous account's cached list.
	require.NoError(t, store.Logout(context.Background()))
	require.NoError(t, store.Login(context.Background(), signedToken(t, "7")))
	serve(srv, http.MethodGet, "/categories", nil)
	assert.Equal(t, 3, fake.count("ListCategories"))
}

func TestCategories_Validation(t *testing.T) {
	fake := newFakeAPI()
	srv, _ := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodPost, "/categories", url.Values{"name": {"Gifts"}, "type": {"savings"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Zero(t, fake.count("CreateCategory"))
}

func TestUpdateCategory_JSONBody(t *testing.T) {
	fake := newFakeAPI()
	srv, _ := newTestServer(t, fake, stateSignedIn)

	req := httptest.NewRequest(http.MethodPut, "/categories/4", strings.NewReader(`{"name":"Groceries","type":"expense"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HX-Request", "true")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, fake.count("UpdateCategory"))
}

func TestCreateBudget(t *testing.T) {
	fake := newFakeAPI()
	srv, _ := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodPost, "/budgets", url.Values{"category": {"Food"}, "limit": {"100"}, "spent": {"0"}})
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = serve(srv, http.MethodPost, "/budgets", url.Values{"category": {"Food"}, "limit": {"0"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 1, fake.count("CreateBudget"))
}

func TestDebts(t *testing.T) {
	fake := newFakeAPI()
	fake.debts = []core.Debt{
		{ID: "3", Lender: "Bank", Amount: core.MoneyFromCents(20000), DueDate: core.NewDate(2026, 3, 1), Status: core.DebtDue},
		{ID: "4", Lender: "Friend", Amount: core.MoneyFromCents(5000), DueDate: core.NewDate(2026, 3, 14)},
	}
	srv, _ := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodGet, "/debts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "debt--overdue")
	assert.Contains(t, rr.Body.String(), "debt--due")

	rr = serve(srv, http.MethodPost, "/debts/3/paid", nil, "HX-Request", "true")
	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, fake.updatedDebt, 1)
	assert.Equal(t, core.DebtPaid, fake.updatedDebt[0].Status)
	assert.Equal(t, "Bank", fake.updatedDebt[0].Lender)

	rr = serve(srv, http.MethodPost, "/debts/99/paid", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReports(t *testing.T) {
	fake := newFakeAPI()
	fake.transactions = []core.Transaction{
		{Date: core.NewDate(2025, 1, 2), Category: "Salary", Amount: core.MoneyFromCents(300000), Type: core.Income},
		{Date: core.NewDate(2025, 7, 5), Category: "Travel", Amount: core.MoneyFromCents(120000), Type: core.Expense},
	}
	srv, _ := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodGet, "/reports?year=2025&month=0", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "3,000.00")
	assert.Contains(t, body, "1,800.00")
	assert.Contains(t, body, "Travel")
}

func TestSettings(t *testing.T) {
	fake := newFakeAPI()
	fake.user = core.User{ID: "7", FullName: "An", Username: "an", Email: "an@example.com", Theme: "light"}
	srv, store := newTestServer(t, fake, stateSignedIn)

	rr := serve(srv, http.MethodPost, "/settings", url.Values{
		"fullName": {"An Nguyen"}, "email": {"an@example.com"}, "savingsGoal": {"500"}, "expenseLimit": {""}, "theme": {"dark"},
	})
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "An Nguyen", fake.user.FullName)
	assert.Equal(t, int64(50000), fake.user.SavingsGoal.Cents())

	rr = serve(srv, http.MethodGet, "/profile", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `data-theme="dark"`)
	assert.Empty(t, fake.user.Password, "blank password must not be sent")

	rr = serve(srv, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="confirmPassword"`)

	rr = serve(srv, http.MethodPost, "/settings/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, 1, fake.count("DeleteUser"))
	assert.False(t, store.IsAuthenticated())
}

func TestSettings_Password(t *testing.T) {
	base := url.Values{"fullName": {"An"}, "email": {"an@example.com"}, "theme": {"light"}}
	with := func(pw, confirm string) url.Values {
		v := url.Values{"password": {pw}, "confirmPassword": {confirm}}
		for k, vals := range base {
			v[k] = vals
		}
		return v
	}

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
		wantSaved  string
	}{
		{"new password", with("s3cret!", "s3cret!"), http.StatusSeeOther, "", "s3cret!"},
		{"confirmation mismatch", with("s3cret!", "s3cret?"), http.StatusUnprocessableEntity, "does not match", ""},
		{"too short", with("abc", "abc"), http.StatusUnprocessableEntity, "password too short", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeAPI()
			fake.user = core.User{ID: "7", FullName: "An", Username: "an", Email: "an@example.com", Theme: "light"}
			srv, _ := newTestServer(t, fake, stateSignedIn)

			rr := serve(srv, http.MethodPost, "/settings", tt.form)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			if tt.wantSaved == "" {
				assert.Zero(t, fake.count("UpdateUser"))
				return
			}
			assert.Equal(t, 1, fake.count("UpdateUser"))
			assert.Equal(t, tt.wantSaved, fake.user.Password)
		})
	}
}

func TestHandlers_UseRequestScopedStore(t *testing.T) {
	fake := newFakeAPI()
	srv, _ := newTestServer(t, fake, stateSignedOut)

	scoped := session.NewStore(session.NewMemoryStorage(), session.WithLogger(log.Discard()))
	require.NoError(t, scoped.Login(context.Background(), signedToken(t, "99")))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(session.WithStore(req.Context(), scoped))

	id, ok := srv.requireSubject(httptest.NewRecorder(), req)
	assert.True(t, ok)
	assert.Equal(t, "99", id)

	assert.PanicsWithValue(t, session.ErrNoScope, func() {
		srv.requireSubject(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	})
}

func TestOpaqueToken_EndsSession(t *testing.T) {
	fake := newFakeAPI()
	srv, store := newTestServer(t, fake, stateSignedOut)
	require.NoError(t, store.Login(context.Background(), "opaque-token"))

	rr := serve(srv, http.MethodGet, "/transactions", nil)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	assert.False(t, store.IsAuthenticated())
	assert.Zero(t, fake.count("ListTransactions"))
}
