package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
)

const (
	sessionKeyPrefix  = "session:"
	roomCodeKeyPrefix = "room:"

	// Optimistic transaction retries. Contention on one session is at most two
	// participants, so conflicts are rare and shallow.
	maxTxRetries = 5
)

type SessionRepository interface {
	CreateAtomic(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	GetByRoomCode(ctx context.Context, code string) (*entity.Session, error)
	MutateAtomic(ctx context.Context, id string, fn func(session *entity.Session) error) (*entity.Session, error)
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

// CreateAtomic stores a new session and claims its room code. The code claim
// is the uniqueness gate: if another live session holds it, the caller gets
// apperror.ErrRoomCodeTaken and is expected to regenerate.
func (that *dbSession) CreateAtomic(ctx context.Context, session *entity.Session) error {
	taken, err := that.client.SetNX(ctx, roomCodeKeyPrefix+session.RoomCode, session.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim room code: %w", err)
	}

	if !taken {
		return apperror.ErrRoomCodeTaken
	}

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	if err = that.client.Set(ctx, sessionKeyPrefix+session.ID, sessionJSON, 0).Err(); err != nil {
		// release the code so the room is not permanently reserved by a
		// half-created session
		_ = that.client.Del(ctx, roomCodeKeyPrefix+session.RoomCode).Err()

		return fmt.Errorf("failed to set session: %w", err)
	}

	return nil
}

func (that *dbSession) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	var existingSession entity.Session
	if err = json.Unmarshal([]byte(response), &existingSession); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &existingSession, nil
}

func (that *dbSession) GetByRoomCode(ctx context.Context, code string) (*entity.Session, error) {
	id, err := that.client.Get(ctx, roomCodeKeyPrefix+code).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to resolve room code: %w", err)
	}

	return that.GetByID(ctx, id)
}

// MutateAtomic runs fn against the current session state and persists the
// result as one atomic unit. The session key is WATCHed, so a concurrent
// mutation invalidates the write and the whole read-check-write is retried.
// If fn returns an error nothing is written and the error comes back as-is.
func (that *dbSession) MutateAtomic(ctx context.Context, id string, fn func(session *entity.Session) error) (*entity.Session, error) {
	key := sessionKeyPrefix + id

	var mutated *entity.Session

	txFn := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrRoomNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		var session entity.Session
		if err = json.Unmarshal([]byte(response), &session); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		if err = fn(&session); err != nil {
			return err
		}

		sessionJSON, err := json.Marshal(&session)
		if err != nil {
			return fmt.Errorf("could not marshal session: %w", err)
		}

		if _, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, sessionJSON, 0)
			return nil
		}); err != nil {
			return fmt.Errorf("failed to write session: %w", err)
		}

		mutated = &session

		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := that.client.Watch(ctx, txFn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return mutated, nil
	}

	return nil, fmt.Errorf("session %s: %w", id, redis.TxFailedErr)
}
