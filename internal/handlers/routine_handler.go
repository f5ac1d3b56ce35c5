package handlers

import (
	"context"
	"net/http"
	"time"

	"routineboard/internal/models"
)

// BoardReader renders the child's board
type BoardReader interface {
	Tabs(ctx context.Context, childID string, now time.Time) (*models.TabsModel, error)
	SuccessSummary(ctx context.Context, childID, sessionID string) (*models.RoutineSuccessSummary, error)
}

// SessionActions advances a child's sessions
type SessionActions interface {
	Start(ctx context.Context, childID, sessionID string, now time.Time) (*models.SessionViewModel, error)
	CompleteStep(ctx context.Context, childID, sessionID, stepID string, now time.Time) (*models.SessionViewModel, error)
	SkipStep(ctx context.Context, childID, sessionID, stepID string, now time.Time) (*models.SessionViewModel, error)
	Complete(ctx context.Context, childID, sessionID string, now time.Time) (*models.RoutineSuccessSummary, error)
}

// RoutineHandler serves the child's routine board
type RoutineHandler struct {
	board   BoardReader
	actions SessionActions
	csrf    CSRFTokens
	now     func() time.Time
}

// CSRFTokens derives the CSRF token handed to the board client
type CSRFTokens interface {
	Token(tokenID string) (string, error)
}

// NewRoutineHandler creates a new routine handler
func NewRoutineHandler(board BoardReader, actions SessionActions, csrf CSRFTokens) *RoutineHandler {
	return &RoutineHandler{
		board:   board,
		actions: actions,
		csrf:    csrf,
		now:     time.Now,
	}
}

type routinesResponse struct {
	Tabs            []models.Tab `json:"tabs"`
	ActiveSessionID *string      `json:"active_session_id"`
	CSRFToken       string       `json:"csrf_token"`
}

// ListRoutines returns the child's tabs
func (h *RoutineHandler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	kid := GetKidFromContext(r.Context())
	if kid == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	model, err := h.board.Tabs(r.Context(), kid.ChildID(), h.now())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	token, err := h.csrf.Token(kid.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error creating CSRF token", err)
		return
	}

	writeJSON(w, http.StatusOK, routinesResponse{
		Tabs:            model.Tabs,
		ActiveSessionID: model.ActiveSessionID,
		CSRFToken:       token,
	})
}

// StartSession begins the session named in the path
func (h *RoutineHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	kid := GetKidFromContext(r.Context())
	if kid == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	session, err := h.actions.Start(r.Context(), kid.ChildID(), r.PathValue("sessionId"), h.now())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// CompleteStep marks a step done
func (h *RoutineHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	h.updateStep(w, r, h.actions.CompleteStep)
}

// SkipStep skips an optional step
func (h *RoutineHandler) SkipStep(w http.ResponseWriter, r *http.Request) {
	h.updateStep(w, r, h.actions.SkipStep)
}

type stepAction func(ctx context.Context, childID, sessionID, stepID string, now time.Time) (*models.SessionViewModel, error)

func (h *RoutineHandler) updateStep(w http.ResponseWriter, r *http.Request, action stepAction) {
	kid := GetKidFromContext(r.Context())
	if kid == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	session, err := action(r.Context(), kid.ChildID(), r.PathValue("sessionId"), r.PathValue("stepId"), h.now())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// CompleteSession finishes the session and returns its celebration summary
func (h *RoutineHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	kid := GetKidFromContext(r.Context())
	if kid == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	summary, err := h.actions.Complete(r.Context(), kid.ChildID(), r.PathValue("sessionId"), h.now())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ShowSuccess returns the celebration summary of a completed session
func (h *RoutineHandler) ShowSuccess(w http.ResponseWriter, r *http.Request) {
	kid := GetKidFromContext(r.Context())
	if kid == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	summary, err := h.board.SuccessSummary(r.Context(), kid.ChildID(), r.PathValue("sessionId"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
