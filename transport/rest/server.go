package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

type gameService interface {
	CreateSession(ctx context.Context, participantKey string) (*entity.Session, *entity.Seat, error)
	JoinSession(ctx context.Context, roomCode, participantKey string) (*entity.Session, *entity.Seat, error)

	ApplyMove(ctx context.Context, sessionID, participantKey string, cell int) (*entity.Session, error)
	ResetSession(ctx context.Context, sessionID, participantKey string) (*entity.Session, error)

	GetSessionByRoomCode(ctx context.Context, roomCode string) (*entity.Session, error)
	GetSessionByID(ctx context.Context, id string) (*entity.Session, error)
}

type identityService interface {
	Issue() (string, error)
	ParticipantKey(token string) (string, error)
}

type Server struct {
	logger   *slog.Logger
	games    gameService
	identity identityService
}

func New(logger *slog.Logger, games gameService, identity identityService) *Server {
	return &Server{
		logger:   logger,
		games:    games,
		identity: identity,
	}
}

// Start - starts the HTTP API server and shuts it down when ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (that *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Get("/ping", that.handlePing)

	router.Route("/api/games", func(r chi.Router) {
		r.Use(that.withParticipant)

		r.Post("/", that.handleCreateGame)
		r.Post("/join", that.handleJoinGame)
		r.Get("/{roomCode}", that.handleGetGame)
		r.Post("/{gameID}/move", that.handleMove)
		r.Post("/{gameID}/reset", that.handleReset)
	})

	return router
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
