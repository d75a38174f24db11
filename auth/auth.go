package auth

import (
	"context"
	"net/http"

	"journal/crypto"

	"github.com/gorilla/sessions"
)

const SessionName = "journal-ticket"

// ticketVersion is stored in every ticket. Bumping it invalidates all
// tickets issued before.
const ticketVersion = 1

const (
	keyUsername = "username"
	keyVersion  = "v"
)

// Identity is the caller of a request. The zero value is the anonymous
// caller.
type Identity struct {
	Username string
}

func (i Identity) Authenticated() bool {
	return i.Username != ""
}

type GateOptions struct {
	MaxAge int // seconds
	Secure bool
}

// Gate issues and verifies the signed ticket cookie.
type Gate struct {
	store   *sessions.CookieStore
	checker *Checker
}

func NewGate(secret string, checker *Checker, opts GateOptions) (*Gate, error) {
	// Separate keys for signing (HMAC) and content encryption (AES)
	authKey, encKey, err := crypto.DeriveSessionKeys(secret)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(authKey, encKey)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(opts.MaxAge)

	return &Gate{store: store, checker: checker}, nil
}

// Login checks the credentials and, when they match, writes a ticket for
// username to w.
func (g *Gate) Login(w http.ResponseWriter, r *http.Request, username, password string) (bool, error) {
	if !g.checker.Check(username, password) {
		return false, nil
	}

	// A corrupt incoming cookie still yields a fresh session to write into.
	session, _ := g.store.Get(r, SessionName)
	session.Values[keyUsername] = username
	session.Values[keyVersion] = ticketVersion
	if err := session.Save(r, w); err != nil {
		return false, err
	}
	return true, nil
}

// Logout empties the ticket and tells the client to drop the cookie.
func (g *Gate) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := g.store.Get(r, SessionName)
	for k := range session.Values {
		delete(session.Values, k)
	}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Identity returns the caller named by the request's ticket. Missing,
// tampered, expired or outdated tickets give the anonymous identity.
func (g *Gate) Identity(r *http.Request) Identity {
	session, err := g.store.Get(r, SessionName)
	if err != nil {
		return Identity{}
	}
	if v, ok := session.Values[keyVersion].(int); !ok || v != ticketVersion {
		return Identity{}
	}
	username, ok := session.Values[keyUsername].(string)
	if !ok {
		return Identity{}
	}
	return Identity{Username: username}
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
