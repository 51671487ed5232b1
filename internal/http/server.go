package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/guard"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/session"
	appweb "fintrack/web"
)

// FinanceAPI is the subset of the remote finance API the web client uses.
// *api.Client implements it.
type FinanceAPI interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, r core.Registration) error

	GetUser(ctx context.Context, userID string) (core.User, error)
	UpdateUser(ctx context.Context, userID string, u core.User) error
	DeleteUser(ctx context.Context, userID string) error

	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID string, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id core.ID) error

	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id core.ID) error

	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, id core.ID) error

	ListDebts(ctx context.Context, userID string) ([]core.Debt, error)
	CreateDebt(ctx context.Context, userID string, d core.Debt) (core.Debt, error)
	UpdateDebt(ctx context.Context, d core.Debt) error
	DeleteDebt(ctx context.Context, id core.ID) error

	Ping(ctx context.Context) error
}

// Config holds the web client settings.
type Config struct {
	Addr           string
	CacheSize      int
	CacheTTL       time.Duration
	LoginRateLimit int // login and register attempts per minute and client
	TrustedProxies []string
	// StoragePing checks the session storage for /readyz. Optional.
	StoragePing func(context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	store     *session.Store
	api       FinanceAPI
	guard     *guard.Guard
	logger    *log.Logger
	now       func() time.Time

	detector    *security.Detector
	limiter     *ratelimit.Limiter
	tracer      *trace.Middleware
	storagePing func(context.Context) error

	// Per-user caches, keyed by the token subject
	caches     *cache.Manager
	categories cache.Cache[[]core.Category]
	themes     cache.Cache[string]

	started      time.Time
	unsubscribe  func()
	shutdownOnce sync.Once
}

// Option customizes a Server.
type Option func(*Server)

// WithClock overrides the clock used for dates and debt status.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg Config, store *session.Store, financeAPI FinanceAPI, logger *log.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector, err := security.NewDetector(cfg.TrustedProxies, logger)
	if err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}

	rateCfg := ratelimit.DefaultConfig()
	if cfg.LoginRateLimit > 0 {
		rateCfg.RequestsPerWindow = cfg.LoginRateLimit
	}

	categories := cache.NewLRUCache[[]core.Category](cfg.CacheSize, cfg.CacheTTL)
	themeCache := cache.NewLRUCache[string](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(categories)
	caches.Register(themeCache)

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		templates: t,
		store:     store,
		api:       financeAPI,
		guard: guard.New(
			guard.WithLogger(logger),
		),
		logger:      logger,
		now:         time.Now,
		detector:    detector,
		limiter:     ratelimit.NewLimiter(rateCfg),
		tracer:      trace.NewMiddleware(detector.ExtractClientIP, logger),
		storagePing: cfg.StoragePing,
		caches:      caches,
		categories:  categories,
		themes:      themeCache,
		started:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Cached API reads belong to one account; a session change drops them.
	s.unsubscribe = store.Subscribe(func(ctx context.Context, change session.Change) {
		if change.Op == session.OpInitialize {
			return
		}
		s.categories.Purge()
		s.themes.Purge()
		s.logger.DebugContext(ctx, "Caches purged", log.FieldOperation, change.Op)
	})
	cleanup := cfg.CacheTTL
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	caches.StartCleanup(cleanup)

	handler, err := s.routes()
	if err != nil {
		s.unsubscribe()
		s.limiter.Stop()
		caches.Stop()
		return nil, err
	}
	s.Handler = handler

	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	authLimit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		s.render(w, r, http.StatusTooManyRequests, "login_page", page{
			Title: "Sign in",
			Error: "Too many attempts. Please wait a minute and try again.",
			Data:  loginForm{},
		})
	})

	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(session.Provide(s.store))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	authLog := log.ComponentMiddleware(log.ComponentAuth)

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(authLog)
		r.Get("/login", s.handleLoginForm)
		r.With(authLimit).Post("/login", s.handleLogin)
		r.Get("/register", s.handleRegisterForm)
		r.With(authLimit).Post("/register", s.handleRegister)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.guard.Middleware)
		r.Use(security.NoStore)

		r.Get("/", s.redirectToDashboard)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/reports", s.handleReports)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
			r.Post("/{id}/delete", s.handleDeleteTransaction)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleCategories)
			r.Post("/", s.handleCreateCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Post("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
			r.Post("/{id}/delete", s.handleDeleteCategory)
		})
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Delete("/{id}", s.handleDeleteBudget)
			r.Post("/{id}/delete", s.handleDeleteBudget)
		})
		r.Route("/debts", func(r chi.Router) {
			r.Get("/", s.handleDebts)
			r.Post("/", s.handleCreateDebt)
			r.Post("/{id}/paid", s.handleMarkDebtPaid)
			r.Delete("/{id}", s.handleDeleteDebt)
			r.Post("/{id}/delete", s.handleDeleteDebt)
		})

		r.Get("/profile", s.handleProfile)
		r.Get("/settings", s.handleSettings)
		r.Post("/settings", s.handleSaveSettings)
		r.With(authLog).Post("/settings/delete", s.handleDeleteAccount)

		r.With(authLog).HandleFunc("/logout", s.handleLogout)
	})

	// Unknown paths are protected too: signed-out users go to the login
	// page, signed-in ones land on the dashboard.
	r.NotFound(s.guard.Middleware(http.HandlerFunc(s.redirectToDashboard)).ServeHTTP)

	return r, nil
}

func (s *Server) redirectToDashboard(w http.ResponseWriter, r *http.Request) {
	guard.Redirect(w, r, "/dashboard")
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.caches.Stop()
		s.limiter.Stop()

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"metrics": map[string]int64{
			"requests":            s.tracer.GetMetrics().TotalRequests,
			"suspicious_requests": s.detector.GetMetrics().SuspiciousRequests,
			"throttled_clients":   s.limiter.GetMetrics().ClientCount,
		},
	})
}

// handleReady checks the session storage and the finance API.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{
		"session": session.FromContext(r.Context()).State().Status.String(),
	}

	check := func(name string, fn func(context.Context) error) {
		if fn == nil {
			checks[name] = "not_configured"
			return
		}
		if err := fn(ctx); err != nil {
			checks[name] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			return
		}
		checks[name] = "ok"
	}
	check("storage", s.storagePing)
	check("finance_api", s.api.Ping)

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// subject returns the account id of the user signed in to the request's
// session, or "".
func (s *Server) subject(r *http.Request) string {
	return session.FromContext(r.Context()).State().Subject
}

// requireSubject returns the account id used in API paths. A token without
// one cannot address the API, so the session is ended.
func (s *Server) requireSubject(w http.ResponseWriter, r *http.Request) (string, bool) {
	if id := s.subject(r); id != "" {
		return id, true
	}
	s.logger.WarnContext(r.Context(), "Session token carries no account id")
	if err := session.FromContext(r.Context()).Logout(r.Context()); err != nil {
		s.logger.ErrorContext(r.Context(), "Logout failed", log.FieldError, err)
	}
	guard.Redirect(w, r, s.guard.LoginPath())
	return "", false
}
