package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"routineboard/internal/models"
	"routineboard/internal/security"
)

// ChildFinder looks up the child profile a login refers to
type ChildFinder interface {
	GetChildByID(ctx context.Context, childID string) (*models.ChildProfile, error)
}

// KidHandler handles kid login and logout
type KidHandler struct {
	children ChildFinder
	tokens   *security.KidTokens
	csrf     *security.CSRFGenerator
}

// NewKidHandler creates a new kid handler
func NewKidHandler(children ChildFinder, tokens *security.KidTokens, csrf *security.CSRFGenerator) *KidHandler {
	return &KidHandler{
		children: children,
		tokens:   tokens,
		csrf:     csrf,
	}
}

type loginRequest struct {
	ChildID string `json:"child_id"`
	PIN     string `json:"pin"`
}

type loginResponse struct {
	ChildID   string    `json:"child_id"`
	Name      string    `json:"name"`
	CSRFToken string    `json:"csrf_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login checks the child's PIN and sets the kid session cookie
func (h *KidHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil || req.ChildID == "" || req.PIN == "" {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	child, err := h.children.GetChildByID(r.Context(), req.ChildID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error getting child", err)
		return
	}
	if child == nil || !security.CheckPIN(child.PINHash, req.PIN) {
		log.Info().Str("child_id", req.ChildID).Str("ip", security.GetClientIP(r)).Msg("Failed kid login")
		respondWithError(w, http.StatusUnauthorized, ErrInvalidCredentials, "", nil)
		return
	}

	raw, expires, err := h.tokens.Issue(child.ID, child.FamilyID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error issuing kid token", err)
		return
	}
	claims, err := h.tokens.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error reading kid token", err)
		return
	}
	csrfToken, err := h.csrf.Token(claims.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error creating CSRF token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, raw, expires))
	log.Info().Str("child_id", child.ID).Msg("Kid logged in")
	writeJSON(w, http.StatusOK, loginResponse{
		ChildID:   child.ID,
		Name:      child.Name,
		CSRFToken: csrfToken,
		ExpiresAt: expires,
	})
}

// Logout clears the kid session cookie
func (h *KidHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}
