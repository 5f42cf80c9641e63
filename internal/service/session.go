package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/internal/pkg"
	"github.com/rocketscienceinc/gameroom-backend/internal/tictactoe"
)

// GameService is the session state machine: it validates every action against
// the current state, persists transitions atomically and hands the resulting
// snapshot to the gateway for fan-out.
type GameService interface {
	CreateSession(ctx context.Context, participantKey string) (*entity.Session, *entity.Seat, error)
	JoinSession(ctx context.Context, roomCode, participantKey string) (*entity.Session, *entity.Seat, error)

	ApplyMove(ctx context.Context, sessionID, participantKey string, cell int) (*entity.Session, error)
	ResetSession(ctx context.Context, sessionID, participantKey string) (*entity.Session, error)

	GetSessionByRoomCode(ctx context.Context, roomCode string) (*entity.Session, error)
	GetSessionByID(ctx context.Context, id string) (*entity.Session, error)
}

type sessionRepo interface {
	CreateAtomic(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	GetByRoomCode(ctx context.Context, code string) (*entity.Session, error)
	MutateAtomic(ctx context.Context, id string, fn func(session *entity.Session) error) (*entity.Session, error)
}

type eventPublisher interface {
	PublishJoined(ctx context.Context, session *entity.Session) error
	PublishState(ctx context.Context, session *entity.Session) error
}

type gameService struct {
	logger *slog.Logger

	sessions sessionRepo
	events   eventPublisher
}

func NewGameService(logger *slog.Logger, sessions sessionRepo, events eventPublisher) GameService {
	return &gameService{
		logger:   logger,
		sessions: sessions,
		events:   events,
	}
}

// CreateSession allocates a waiting session with an empty board and seats the
// creator as host X. Room-code collisions are resolved by regenerating.
func (that *gameService) CreateSession(ctx context.Context, participantKey string) (*entity.Session, *entity.Seat, error) {
	roomCode, err := pkg.GenerateRoomCode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate room code: %w", err)
	}

	session := entity.NewSession(pkg.NewID(), roomCode)
	seat := session.AddSeat(participantKey, entity.SymbolX, true)

	for {
		err = that.sessions.CreateAtomic(ctx, session)
		if err == nil {
			break
		}

		if !errors.Is(err, apperror.ErrRoomCodeTaken) {
			return nil, nil, fmt.Errorf("failed to create session: %w", err)
		}

		if session.RoomCode, err = pkg.GenerateRoomCode(); err != nil {
			return nil, nil, fmt.Errorf("failed to regenerate room code: %w", err)
		}
	}

	return session, seat, nil
}

// JoinSession seats a second participant as O and starts the game. A repeat
// join by an already-seated participant returns the existing seat and skips
// the broadcast, so client retries and page reloads never fail.
func (that *gameService) JoinSession(ctx context.Context, roomCode, participantKey string) (*entity.Session, *entity.Seat, error) {
	existing, err := that.sessions.GetByRoomCode(ctx, pkg.NormalizeRoomCode(roomCode))
	if err != nil {
		return nil, nil, err
	}

	var (
		seat   *entity.Seat
		replay bool
	)

	updated, err := that.sessions.MutateAtomic(ctx, existing.ID, func(session *entity.Session) error {
		if held := session.SeatOf(participantKey); held != nil {
			seat = held
			replay = true
			return nil
		}

		if len(session.Seats) >= 2 {
			return apperror.ErrRoomFull
		}

		if !session.IsWaiting() {
			return apperror.ErrNotJoinable
		}

		seat = session.AddSeat(participantKey, entity.SymbolO, false)
		session.Phase = entity.PhasePlaying

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !replay {
		that.publishJoined(ctx, updated)
	}

	return updated, seat, nil
}

// ApplyMove writes the seat's symbol into the cell, flips the turn and settles
// the outcome. The whole read-check-write runs as one atomic unit, so a
// racing duplicate simply fails the turn gate on its second pass.
func (that *gameService) ApplyMove(ctx context.Context, sessionID, participantKey string, cell int) (*entity.Session, error) {
	updated, err := that.sessions.MutateAtomic(ctx, sessionID, func(session *entity.Session) error {
		seat := session.SeatOf(participantKey)
		if seat == nil {
			return apperror.ErrNotInSession
		}

		if !session.IsPlaying() {
			return apperror.ErrNotPlayable
		}

		if seat.Symbol != session.Turn {
			return apperror.ErrNotYourTurn
		}

		if cell < 0 || cell >= len(session.Board) {
			return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
		}

		if session.Board[cell] != entity.EmptyCell {
			return apperror.ErrCellOccupied
		}

		session.Board[cell] = seat.Symbol
		session.Turn = entity.OtherSymbol(seat.Symbol)

		switch result := tictactoe.Evaluate(session.Board); result.State {
		case tictactoe.ResultWon:
			session.Phase = entity.PhaseFinished
			session.Outcome = result.Winner
			session.WinningLine = []int{result.Line[0], result.Line[1], result.Line[2]}
		case tictactoe.ResultDraw:
			session.Phase = entity.PhaseFinished
			session.Outcome = entity.OutcomeDraw
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	that.publishState(ctx, updated)

	return updated, nil
}

// ResetSession starts a fresh game in a finished room, keeping both seats.
func (that *gameService) ResetSession(ctx context.Context, sessionID, participantKey string) (*entity.Session, error) {
	updated, err := that.sessions.MutateAtomic(ctx, sessionID, func(session *entity.Session) error {
		if session.SeatOf(participantKey) == nil {
			return apperror.ErrNotInSession
		}

		if !session.IsFinished() {
			return apperror.ErrNotFinished
		}

		session.Reset()

		return nil
	})
	if err != nil {
		return nil, err
	}

	that.publishState(ctx, updated)

	return updated, nil
}

func (that *gameService) GetSessionByRoomCode(ctx context.Context, roomCode string) (*entity.Session, error) {
	session, err := that.sessions.GetByRoomCode(ctx, pkg.NormalizeRoomCode(roomCode))
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (that *gameService) GetSessionByID(ctx context.Context, id string) (*entity.Session, error) {
	session, err := that.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Fan-out is best-effort and never fails the mutation that triggered it: a
// lost notification self-heals on the next broadcast or state fetch.
func (that *gameService) publishJoined(ctx context.Context, session *entity.Session) {
	if err := that.events.PublishJoined(ctx, session); err != nil {
		that.logger.With("method", "publishJoined").Error("failed to publish event", "gameID", session.ID, "error", err)
	}
}

func (that *gameService) publishState(ctx context.Context, session *entity.Session) {
	if err := that.events.PublishState(ctx, session); err != nil {
		that.logger.With("method", "publishState").Error("failed to publish event", "gameID", session.ID, "error", err)
	}
}
