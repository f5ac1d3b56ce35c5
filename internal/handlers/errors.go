package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"routineboard/internal/routine"
	"routineboard/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error().Err(err).Int("status", status).Msg(logMsg)
	}

	writeJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps domain errors to statuses. Unknown errors are
// logged and reported as a generic failure.
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrChildNotFound),
		errors.Is(err, service.ErrStepNotFound):
		respondWithError(w, http.StatusNotFound, err.Error(), "", nil)
	case errors.Is(err, service.ErrNotSessionOwner):
		respondWithError(w, http.StatusForbidden, err.Error(), "", nil)
	case errors.Is(err, service.ErrSessionNotCompleted),
		errors.Is(err, service.ErrSessionNotStartable),
		errors.Is(err, service.ErrSessionNotInProgress),
		errors.Is(err, service.ErrStepNotOptional),
		errors.Is(err, service.ErrMandatoryStepsPending):
		respondWithError(w, http.StatusConflict, err.Error(), "", nil)
	case errors.Is(err, routine.ErrDependencyUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, ErrServiceUnavailable, "Dependency unavailable", err)
	default:
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "", err)
	}
}
