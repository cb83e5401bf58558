package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"studycompanion"
)

const sessionIDKey = "id"

// sessionCookies maps a browser to a stable session id held in a signed
// cookie.
type sessionCookies struct {
	store *sessions.CookieStore
	name  string
}

func newSessionCookies(cfg studycompanion.SessionConfig, secure bool) *sessionCookies {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAgeDays * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionCookies{store: store, name: cfg.CookieName}
}

// sessionID returns the id stored in the request's cookie, issuing a new
// one when the cookie is missing or cannot be decoded.
func (sc *sessionCookies) sessionID(w http.ResponseWriter, r *http.Request) string {
	session, err := sc.store.Get(r, sc.name)
	if err != nil {
		studycompanion.Logger().Debug("Discarding unreadable session cookie", zap.Error(err))
	}

	if id, ok := session.Values[sessionIDKey].(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	session.Values[sessionIDKey] = id
	if err := session.Save(r, w); err != nil {
		studycompanion.Logger().Error("Failed to save session cookie", zap.Error(err))
	}
	return id
}
