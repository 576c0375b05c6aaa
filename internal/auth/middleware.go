package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue takes any value as the key. If you use a plain string
// like "claims", ANY package that knows that string can read or shadow your
// value. A package-private key type means only this package can put claims
// into — or pull them out of — a context.
type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth enforces authentication on protected routes.
//
// It reads the bearer token from the Authorization header, verifies it, and
// stores the resolved claims in the request context. Two failure modes are
// kept deliberately distinct:
//
//   - No credential at all      → 401, "auth_required"
//   - Credential fails to verify → 403, "auth_rejected"
//
// An invalid token NEVER falls through to anonymous handling — a request
// that presents a credential is judged on that credential.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler wrapping it. Chi applies them in a chain:
//
//	req → RequireAuth → RequireAdmin → Handler
//
// The ordering above is a hard requirement: RequireAdmin assumes claims are
// already in the context, so it must always be stacked after RequireAuth.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "auth_required", "valid authentication required")
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				writeAuthError(w, http.StatusForbidden, "auth_rejected", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the caller's identity when a valid token is present,
// but never blocks the request. Use on public routes where a logged-in
// caller might see extra data.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := bearerToken(r); raw != "" {
				if claims, err := tokens.Verify(raw); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a route on the admin capability. It must be stacked
// AFTER RequireAuth — it reads claims from the context and does not verify
// tokens itself. Missing claims (a wiring mistake, or a stack without
// RequireAuth) are treated as a missing credential rather than silently
// allowed through.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "auth_required", "valid authentication required")
			return
		}
		if !claims.IsAdmin {
			writeAuthError(w, http.StatusForbidden, "forbidden", "admin capability required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext retrieves the authenticated caller's claims.
// Returns (nil, false) if the request is anonymous.
//
// Usage in handlers:
//
//	claims, ok := auth.ClaimsFromContext(r.Context())
//	if !ok {
//	    // anonymous caller
//	}
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// ContextWithClaims returns a context carrying the given claims.
// Exported for handler tests that bypass the middleware stack.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// bearerToken extracts the token from `Authorization: Bearer <token>`.
// Returns "" when the header is absent or not a bearer credential.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeAuthError emits the gate's JSON failure body. The gates cannot use
// the handler package's helpers without an import cycle, so the (small)
// error shape is duplicated here — keep it in sync with handler.ErrorResponse.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}
