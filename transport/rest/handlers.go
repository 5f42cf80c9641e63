package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type joinRequest struct {
	RoomCode string `json:"room_code"`
}

type moveRequest struct {
	Position int `json:"position"`
}

type seatPayload struct {
	Symbol string `json:"symbol"`
	IsHost bool   `json:"is_host"`
}

func newSeatPayload(seat *entity.Seat) seatPayload {
	return seatPayload{Symbol: seat.Symbol, IsHost: seat.IsHost}
}

func (that *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleCreateGame")

	session, seat, err := that.games.CreateSession(r.Context(), participantFrom(r.Context()))
	if err != nil {
		log.Error("failed to create game", "error", err)
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Success: true,
		Message: "Game created successfully",
		Data: map[string]any{
			"room_code": session.RoomCode,
			"game":      session.Sanitized(),
			"player":    newSeatPayload(seat),
		},
	})
}

func (that *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleJoinGame")

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomCode == "" {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "room_code is required"})
		return
	}

	session, seat, err := that.games.JoinSession(r.Context(), req.RoomCode, participantFrom(r.Context()))
	if err != nil {
		log.Info("join rejected", "roomCode", req.RoomCode, "error", err)
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Successfully joined the game as Player " + seat.Symbol,
		Data: map[string]any{
			"room_code": session.RoomCode,
			"game":      session.Sanitized(),
			"player":    newSeatPayload(seat),
		},
	})
}

// handleGetGame serves the page-load snapshot by room code, falling back to
// session id so both identifiers the API hands out are resolvable.
func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "roomCode")

	session, err := that.games.GetSessionByRoomCode(r.Context(), ref)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		session, err = that.games.GetSessionByID(r.Context(), ref)
	}

	if err != nil {
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data: map[string]any{
			"game": session.Sanitized(),
		},
	})
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleMove")

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Success: false, Message: "position is required"})
		return
	}

	gameID := chi.URLParam(r, "gameID")

	session, err := that.games.ApplyMove(r.Context(), gameID, participantFrom(r.Context()), req.Position)
	if err != nil {
		log.Info("move rejected", "gameID", gameID, "error", err)
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Data: map[string]any{
			"game": session.Sanitized(),
		},
	})
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleReset")

	gameID := chi.URLParam(r, "gameID")

	session, err := that.games.ResetSession(r.Context(), gameID, participantFrom(r.Context()))
	if err != nil {
		log.Info("reset rejected", "gameID", gameID, "error", err)
		that.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Game reset",
		Data: map[string]any{
			"game": session.Sanitized(),
		},
	})
}

// writeError maps the error taxonomy onto HTTP statuses: unknown rooms are
// 404, malformed positions 422, the remaining precondition violations 400 and
// anything else an opaque 500.
func (that *Server) writeError(w http.ResponseWriter, err error) {
	var status int

	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidCell):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotJoinable),
		errors.Is(err, apperror.ErrRoomFull),
		errors.Is(err, apperror.ErrNotInSession),
		errors.Is(err, apperror.ErrNotPlayable),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrNotFinished):
		status = http.StatusBadRequest
	default:
		writeJSON(w, http.StatusInternalServerError, response{Success: false, Message: "internal error"})
		return
	}

	writeJSON(w, status, response{Success: false, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}
