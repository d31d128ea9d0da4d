// Package identity provides anonymous per-device identity primitives. The
// anonymous id doubles as the default conversation session id, so a page
// reload resumes the same dialog.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"time"
)

const (
	// AnonCookieName carries the anonymous device id.
	AnonCookieName   = "stylist_anon_id"
	anonCookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const anonIDKey contextKey = iota

var anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// AnonIDFromContext extracts the anonymous id from the request context.
func AnonIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(anonIDKey).(string); ok {
		return v
	}
	return ""
}

// Middleware ensures every request carries a valid anonymous id cookie and
// exposes it on the request context.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			anonID := ""
			if c, err := r.Cookie(AnonCookieName); err == nil && anonIDPattern.MatchString(c.Value) {
				anonID = c.Value
			}
			if anonID == "" {
				anonID = newAnonID()
				http.SetCookie(w, &http.Cookie{
					Name:     AnonCookieName,
					Value:    anonID,
					Path:     "/",
					MaxAge:   int(anonCookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   !isDev,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), anonIDKey, anonID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newAnonID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return "anon_" + hex.EncodeToString(buf)
}
