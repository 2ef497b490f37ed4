package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by Middleware, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// Cookies reads and writes the session cookie.
type Cookies struct {
	Name   string
	Secure bool
}

// Set writes token into the session cookie.
func (c Cookies) Set(w http.ResponseWriter, token string, ttl time.Duration) {
	sameSite := http.SameSiteLaxMode
	if c.Secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: sameSite,
		MaxAge:   int(ttl.Seconds()),
	})
}

// Clear expires the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		MaxAge:   -1,
	})
}

func (c Cookies) token(r *http.Request) string {
	if ck, err := r.Cookie(c.Name); err == nil && ck.Value != "" {
		return ck.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Authenticator resolves the caller from the request.
type Authenticator struct {
	tokens  *Tokens
	cookies Cookies
	onError func(w http.ResponseWriter, status int, msg string)
}

// NewAuthenticator constructs an Authenticator. onError writes rejections so
// they share the API's error envelope.
func NewAuthenticator(tokens *Tokens, cookies Cookies, onError func(w http.ResponseWriter, status int, msg string)) *Authenticator {
	return &Authenticator{tokens: tokens, cookies: cookies, onError: onError}
}

// Require rejects requests without a valid token: 401 when absent, 403 when
// it does not verify.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := a.cookies.token(r)
		if raw == "" {
			a.onError(w, http.StatusUnauthorized, "access denied, no token provided")
			return
		}
		id, err := a.tokens.Verify(raw)
		if err != nil {
			a.onError(w, http.StatusForbidden, "forbidden, invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin must run after Require.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok || !id.IsAdmin() {
			a.onError(w, http.StatusForbidden, "access denied, admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
