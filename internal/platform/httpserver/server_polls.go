package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	domainerrors "ballotbox/contexts/polling/voting-service/domain/errors"
	pollhttp "ballotbox/contexts/polling/voting-service/transport/http"
)

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{Code: code, Message: message})
}

func writePollDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidPollInput):
		writePollError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrTallyAlreadyExists),
		errors.Is(err, domainerrors.ErrConflict):
		writePollError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// requirePollIdentity returns the caller identity the host authenticated.
// The value is trusted as-is.
func requirePollIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if strings.TrimSpace(userID) == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.polls.Handler.PingHandler(r.Context()))
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := requirePollIdentity(w, r)
	if !ok {
		return
	}

	var req pollhttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.CreatePollHandler(r.Context(), creatorID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Poll keys contain '&' and '=', so they travel as an escaped query value
// rather than a path segment.
func (s *Server) handleShowPoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ShowPollHandler(r.Context(), r.URL.Query().Get("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShowResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.polls.Handler.ShowResultsHandler(r.Context(), r.URL.Query().Get("poll_id"))
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requirePollIdentity(w, r)
	if !ok {
		return
	}

	var req pollhttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.VoteHandler(r.Context(), voterID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
