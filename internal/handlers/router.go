package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports liveness and database reachability
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, ErrServiceUnavailable, "Health check failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// NewRouter wires the routes of the child API
func NewRouter(m *Middleware, kids *KidHandler, routines *RoutineHandler, db Pinger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", Health(db))

	// Kid session
	mux.HandleFunc("POST /child/login", m.RateLimit(kids.Login))
	mux.HandleFunc("POST /child/logout", kids.Logout)

	// Routine board
	mux.HandleFunc("GET /child/routines", m.RequireKidAuth(routines.ListRoutines))
	mux.HandleFunc("POST /child/routines/{sessionId}/start", m.RequireKidAuth(m.CSRFProtect(routines.StartSession)))
	mux.HandleFunc("POST /child/routines/{sessionId}/steps/{stepId}/complete", m.RequireKidAuth(m.CSRFProtect(routines.CompleteStep)))
	mux.HandleFunc("POST /child/routines/{sessionId}/steps/{stepId}/skip", m.RequireKidAuth(m.CSRFProtect(routines.SkipStep)))
	mux.HandleFunc("POST /child/routines/{sessionId}/complete", m.RequireKidAuth(m.CSRFProtect(routines.CompleteSession)))
	mux.HandleFunc("GET /child/routines/{sessionId}/success", m.RequireKidAuth(routines.ShowSuccess))

	return Logging(mux)
}
