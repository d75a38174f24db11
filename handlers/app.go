// Package handlers serves the journal: routing, the permission gate in
// front of every route, and the entry and login workflows.
package handlers

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"journal/auth"
	"journal/db"
	"journal/i18n"
	"journal/logging"

	"github.com/dchest/captcha"
	"github.com/etitcombe/logifymw"
	"github.com/thejerf/abtime"
)

// Store hands out an entry store bound to one transaction.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, entries db.EntryStore) error) error
}

type Options struct {
	AppName string
	Store   Store
	Gate    *auth.Gate
	Policy  *auth.Policy        // defaults to auth.DefaultPolicy
	Catalog *i18n.Catalog       // defaults to the embedded catalogues
	Logger  logging.Logger      // defaults to a discarding logger
	Clock   abtime.AbstractTime // defaults to real time

	// AccessLog receives one line per request when set.
	AccessLog *log.Logger
}

type App struct {
	appName   string
	store     Store
	gate      *auth.Gate
	policy    auth.Policy
	catalog   *i18n.Catalog
	logger    logging.Logger
	clock     abtime.AbstractTime
	accessLog *log.Logger

	templates map[string]*template.Template
	limiter   *rateLimiter
	handler   http.Handler
}

func New(opts Options) (*App, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if opts.Gate == nil {
		return nil, fmt.Errorf("gate required")
	}

	a := &App{
		appName:   opts.AppName,
		store:     opts.Store,
		gate:      opts.Gate,
		policy:    auth.DefaultPolicy(),
		catalog:   opts.Catalog,
		logger:    opts.Logger,
		clock:     opts.Clock,
		accessLog: opts.AccessLog,
	}
	if opts.Policy != nil {
		a.policy = *opts.Policy
	}
	if a.catalog == nil {
		catalog, err := i18n.Load()
		if err != nil {
			return nil, err
		}
		a.catalog = catalog
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	if a.clock == nil {
		a.clock = abtime.NewRealTime()
	}
	a.limiter = newRateLimiter(a.clock)

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	a.templates = templates

	a.handler, err = a.routes()
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func (a *App) routes() (http.Handler, error) {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	mux.Handle("GET /static/", a.allow(auth.PermView, cacheFor(3600, http.StripPrefix("/static/", http.FileServer(http.FS(static))))))
	mux.Handle("GET /captcha/", a.allow(auth.PermView, captcha.Server(captcha.StdWidth, captcha.StdHeight)))

	mux.Handle("GET /{$}", a.allow(auth.PermView, http.HandlerFunc(a.home)))
	mux.Handle("GET /login", a.allow(auth.PermView, http.HandlerFunc(a.loginForm)))
	mux.Handle("POST /login", a.allow(auth.PermView, http.HandlerFunc(a.login)))
	mux.Handle("GET /logout", a.allow(auth.PermSecret, http.HandlerFunc(a.logout)))

	mux.Handle("GET /journal/new-entry", a.allow(auth.PermSecret, http.HandlerFunc(a.newEntryForm)))
	mux.Handle("POST /journal/new-entry", a.allow(auth.PermSecret, http.HandlerFunc(a.createEntry)))
	mux.Handle("GET /journal/{id}", digitsOnly("id", a.allow(auth.PermSecret, http.HandlerFunc(a.detail))))
	mux.Handle("GET /journal/{id}/edit-entry", digitsOnly("id", a.allow(auth.PermSecret, http.HandlerFunc(a.editEntryForm))))
	mux.Handle("POST /journal/{id}/edit-entry", digitsOnly("id", a.allow(auth.PermSecret, http.HandlerFunc(a.updateEntry))))

	var h http.Handler = a.authenticate(mux)
	h = SecurityHeadersMiddleware(h)
	if a.accessLog != nil {
		h = logifymw.LogIt2(a.accessLog, h)
	}
	h = requestIDMiddleware(h)
	h = a.recoverPanic(h)
	return h, nil
}
