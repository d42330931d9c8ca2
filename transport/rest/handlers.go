package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-solo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
)

const (
	SessionCookieName = "user_session"
	sessionCookieTTL  = 24 * time.Hour
)

type moveRequest struct {
	Cell *int `json:"cell"`
}

type difficultyRequest struct {
	Difficulty string `json:"difficulty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	_, state := that.session(w, r)

	writeJSON(w, http.StatusOK, state)
}

func (that *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := that.session(w, r)

	state, err := that.manager.NewGame(r.Context(), sessionID)
	if err != nil {
		that.writeFailure(w, "handleNewGame", err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		that.writeFailure(w, "handleMove", fmt.Errorf("%w: cell is required", apperror.ErrInvalidRequest))
		return
	}

	sessionID, _ := that.session(w, r)

	state, err := that.manager.MakeTurn(r.Context(), sessionID, *req.Cell)
	if err != nil {
		that.writeFailure(w, "handleMove", err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (that *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	var req difficultyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeFailure(w, "handleDifficulty", fmt.Errorf("%w: difficulty is required", apperror.ErrInvalidRequest))
		return
	}

	sessionID, _ := that.session(w, r)

	state, err := that.manager.SetDifficulty(r.Context(), sessionID, req.Difficulty)
	if err != nil {
		that.writeFailure(w, "handleDifficulty", err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// session resolves the session of the request cookie and refreshes the cookie when a new one was issued.
func (that *Server) session(w http.ResponseWriter, r *http.Request) (string, entity.GameState) {
	var requested string
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		requested = cookie.Value
	}

	sessionID, state := that.manager.GetOrCreateSession(r.Context(), requested)
	if sessionID != requested {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookieName,
			Value:    sessionID,
			Expires:  time.Now().Add(sessionCookieTTL),
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}

	return sessionID, state
}

func (that *Server) writeFailure(w http.ResponseWriter, method string, err error) {
	switch {
	case errors.Is(err, apperror.ErrUnknownDifficulty), errors.Is(err, apperror.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperror.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	default:
		that.logger.Error("request failed", "method", method, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
