package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/internal/pubsub"
)

const (
	frameConnectionStatus = "connection.status"

	writeTimeout = 3 * time.Second
)

type gameService interface {
	GetSessionByRoomCode(ctx context.Context, roomCode string) (*entity.Session, error)
}

// frame is one JSON message pushed to a connected client: either a state
// snapshot forwarded from the session topic or a connection status change.
type frame struct {
	Type   string          `json:"type"`
	Game   *entity.Session `json:"game,omitempty"`
	Status pubsub.Status   `json:"status,omitempty"`
}

type Server struct {
	logger *slog.Logger
	games  gameService
	client *redis.Client
}

func New(logger *slog.Logger, games gameService, client *redis.Client) *Server {
	return &Server{
		logger: logger,
		games:  games,
		client: client,
	}
}

// Start - starts the WebSocket push server and shuts it down when ctx is
// cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	router := chi.NewRouter()
	router.Get("/ws", that.handleSubscribe)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// handleSubscribe upgrades the connection and forwards every snapshot
// published on the session's topic. The client's own state fetch happened on
// page load; it stays authoritative until the first snapshot arrives.
func (that *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleSubscribe")

	roomCode := r.URL.Query().Get("room_code")
	if roomCode == "" {
		http.Error(w, "missing room_code", http.StatusBadRequest)
		return
	}

	session, err := that.games.GetSessionByRoomCode(r.Context(), roomCode)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to resolve room", "roomCode", roomCode, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	frames := make(chan frame, 8)

	sub := pubsub.NewSubscriber(that.logger, that.client, pubsub.TopicFor(session.ID), func(event pubsub.Event) {
		pushFrame(frames, frame{Type: event.Kind, Game: event.Game})
	}, pubsub.Options{})

	sub.OnStatus(func(status pubsub.Status) {
		pushFrame(frames, frame{Type: frameConnectionStatus, Status: status})
	})

	go func() {
		if runErr := sub.Run(ctx); runErr != nil {
			log.Error("subscription ended", "gameID", session.ID, "error", runErr)
		}
		cancel()
	}()

	go that.writeLoop(ctx, conn, frames)

	// the read side only detects the client going away
	for {
		if _, _, err = conn.Read(ctx); err != nil {
			return
		}
	}
}

func (that *Server) writeLoop(ctx context.Context, conn *websocket.Conn, frames <-chan frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			payload, err := json.Marshal(f)
			if err != nil {
				that.logger.Error("failed to marshal frame", "error", err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			_ = conn.Write(writeCtx, websocket.MessageText, payload)
			cancel()
		}
	}
}

// pushFrame never blocks a publisher: when the client cannot keep up the
// oldest frame is dropped, since every snapshot is complete and latest wins.
func pushFrame(frames chan frame, f frame) {
	for {
		select {
		case frames <- f:
			return
		default:
			select {
			case <-frames:
			default:
			}
		}
	}
}
