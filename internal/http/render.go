package http

import (
	"bytes"
	"html/template"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	appweb "fintrack/web"
)

var templateFuncs = template.FuncMap{
	"money":    formatMoney,
	"progress": budgetProgress,
}

// flashMessages are the confirmations a redirect can ask for with ?flash=.
var flashMessages = map[string]string{
	"created":    "Saved.",
	"updated":    "Changes saved.",
	"deleted":    "Deleted.",
	"paid":       "Debt marked as paid.",
	"registered": "Account created. You can sign in now.",
	"logout":     "You have been signed out.",
}

// page is the data every full page template receives.
type page struct {
	Title         string
	Active        string
	Authenticated bool
	Theme         string
	Flash         string
	Error         string
	Data          any
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// render executes the full page template name. Output is buffered so a
// template failure still yields a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if p.Flash == "" {
		p.Flash = flashMessages[r.URL.Query().Get("flash")]
	}
	if p.Theme == "" {
		p.Theme = "light"
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, p); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderPartial answers an htmx mutation with the refreshed rows of a list.
func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any, resource, message string) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Partial execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		InternalServerError("Could not render the page").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerFormReset().
		TriggerRecordChanged(resource).
		TriggerSuccessNotification(message).
		BodyHTML(buf.String()).
		Write(w)
}

// pageFor fills the layout fields shared by every protected page.
func (s *Server) pageFor(r *http.Request, title, active string, data any) page {
	return page{
		Title:         title,
		Active:        active,
		Authenticated: true,
		Theme:         s.theme(r),
		Data:          data,
	}
}

// theme returns the cached UI theme of the signed-in user.
func (s *Server) theme(r *http.Request) string {
	if t, ok := s.themes.Get(s.subject(r)); ok {
		return t
	}
	return "light"
}

var themes = []string{"light", "dark"}

func validTheme(t string) bool {
	for _, v := range themes {
		if v == t {
			return true
		}
	}
	return false
}

var transactionTypes = []core.CategoryType{core.Expense, core.Income}
