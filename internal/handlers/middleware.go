package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"routineboard/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const KidContextKey ContextKey = "kid"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.KidTokens
	csrf    *security.CSRFGenerator
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.KidTokens, csrf *security.CSRFGenerator, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		csrf:    csrf,
		limiter: limiter,
	}
}

// RequireKidAuth is middleware that requires a valid kid session cookie
func (m *Middleware) RequireKidAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(security.KidCookieName)
		if err != nil || cookie.Value == "" {
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		claims, err := m.tokens.Parse(cookie.Value)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected kid session")
			http.SetCookie(w, security.CreateDeleteCookie(r))
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), KidContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// CSRFProtect requires the CSRF token bound to the kid session. It must run
// inside RequireKidAuth.
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetKidFromContext(r.Context())
		if claims == nil || !m.csrf.Valid(claims.ID, r.Header.Get(CSRFHeaderName)) {
			respondWithError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
			return
		}
		next(w, r)
	}
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(60))
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

// GetKidFromContext retrieves the kid claims from the request context
func GetKidFromContext(ctx context.Context) *security.KidClaims {
	claims, ok := ctx.Value(KidContextKey).(*security.KidClaims)
	if !ok {
		return nil
	}
	return claims
}
