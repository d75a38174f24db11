package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"runtime/debug"

	"journal/auth"

	"github.com/gorilla/csrf"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// storageFailure is shown to the client whenever the database fails. The
// underlying error only goes to the log.
const storageFailure = `Unable to reach the journal database.

This is usually a transient problem: the database file may be locked or
missing, or the database server may be down. Check that the database
configured by DATABASE_URL exists and has been initialised (see cmd/initdb),
then reload the page.
`

// parseTemplates parses every page together with the layout. T is replaced
// per request with the caller's language.
func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	funcs := template.FuncMap{"T": func(key string) string { return key }}
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := path.Base(page)
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func (a *App) translator(r *http.Request) func(string) string {
	lang := a.catalog.DetectLanguage(r)
	return func(key string) string { return a.catalog.T(lang, key) }
}

func (a *App) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	base, ok := a.templates[name]
	if !ok {
		a.serverError(w, r, fmt.Errorf("template %s does not exist", name))
		return
	}
	tmpl, err := base.Clone()
	if err != nil {
		a.serverError(w, r, err)
		return
	}
	tmpl.Funcs(template.FuncMap{"T": a.translator(r)})

	if data == nil {
		data = map[string]any{}
	}
	data["AppName"] = a.appName
	data["Lang"] = a.catalog.DetectLanguage(r)
	data["csrfField"] = csrf.TemplateField(r)
	data["Identity"] = auth.FromContext(r.Context())

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "layout", data); err != nil {
		a.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (a *App) serverError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Error(r.Context(), "internal error",
		"err", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID(r.Context()),
		"stack", string(debug.Stack()))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// storageError reports a failed unit of work. It is never retried.
func (a *App) storageError(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Error(r.Context(), "storage failure",
		"err", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID(r.Context()))
	http.Error(w, storageFailure, http.StatusInternalServerError)
}

func (a *App) clientError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}
