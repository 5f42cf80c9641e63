package repository

import (
	"sync"
	"testing"

	"github.com/rocketscienceinc/gameroom-backend/internal/apperror"
	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_CreateAtomic(t *testing.T) {
	t.Run("CreateAtomic_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// Given: a waiting session with a host seat
		session := entity.NewSession("sess-1", "ABC123")
		session.AddSeat("player-a", entity.SymbolX, true)

		// When: CreateAtomic is called
		err := sessionRepo.CreateAtomic(ctx, session)

		// Then: the session is stored and resolvable both ways
		require.NoError(t, err)

		byID, err := sessionRepo.GetByID(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "ABC123", byID.RoomCode)

		byCode, err := sessionRepo.GetByRoomCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", byCode.ID)
		require.Len(t, byCode.Seats, 1)
		assert.Equal(t, entity.SymbolX, byCode.Seats[0].Symbol)
	})

	t.Run("CreateAtomic_RoomCodeCollision", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// Given: a live session holding the code
		first := entity.NewSession("sess-1", "ABC123")
		require.NoError(t, sessionRepo.CreateAtomic(ctx, first))

		// When: another session claims the same code
		second := entity.NewSession("sess-2", "ABC123")
		err := sessionRepo.CreateAtomic(ctx, second)

		// Then: the claim is rejected and the original survives
		require.ErrorIs(t, err, apperror.ErrRoomCodeTaken)

		stored, err := sessionRepo.GetByRoomCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", stored.ID)
	})
}

func TestSessionRepository_Get(t *testing.T) {
	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// When: GetByID is called with a non-existent ID
		_, err := sessionRepo.GetByID(ctx, "9999999")

		// Then: ErrRoomNotFound is returned
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("GetByRoomCode_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// When: GetByRoomCode is called with an unknown code
		_, err := sessionRepo.GetByRoomCode(ctx, "NOSUCH")

		// Then: ErrRoomNotFound is returned
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestSessionRepository_MutateAtomic(t *testing.T) {
	t.Run("MutateAtomic_AppliesMutation", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		session := entity.NewSession("sess-1", "ABC123")
		require.NoError(t, sessionRepo.CreateAtomic(ctx, session))

		// When: mutating the session
		updated, err := sessionRepo.MutateAtomic(ctx, "sess-1", func(s *entity.Session) error {
			s.Board[4] = entity.SymbolX
			s.Turn = entity.SymbolO
			return nil
		})

		// Then: the returned and stored state both carry the mutation
		require.NoError(t, err)
		assert.Equal(t, entity.SymbolX, updated.Board[4])

		stored, err := sessionRepo.GetByID(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, entity.SymbolX, stored.Board[4])
		assert.Equal(t, entity.SymbolO, stored.Turn)
	})

	t.Run("MutateAtomic_RejectionLeavesStateUntouched", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		session := entity.NewSession("sess-1", "ABC123")
		require.NoError(t, sessionRepo.CreateAtomic(ctx, session))

		// When: the mutation callback rejects the transition
		_, err := sessionRepo.MutateAtomic(ctx, "sess-1", func(s *entity.Session) error {
			s.Board[0] = entity.SymbolX
			return apperror.ErrNotYourTurn
		})

		// Then: the error passes through unwrapped and nothing was written
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		stored, err := sessionRepo.GetByID(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, entity.EmptyCell, stored.Board[0])
	})

	t.Run("MutateAtomic_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		_, err := sessionRepo.MutateAtomic(ctx, "9999999", func(*entity.Session) error {
			return nil
		})

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("MutateAtomic_ConcurrentMutationsAllApply", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		session := entity.NewSession("sess-1", "ABC123")
		require.NoError(t, sessionRepo.CreateAtomic(ctx, session))

		// When: two writers append seats concurrently
		const perWriter = 10

		var wg sync.WaitGroup
		errs := make(chan error, 2*perWriter)

		for _, key := range []string{"writer-a", "writer-b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					_, err := sessionRepo.MutateAtomic(ctx, "sess-1", func(s *entity.Session) error {
						s.AddSeat(key, entity.SymbolX, false)
						return nil
					})
					errs <- err
				}
			}(key)
		}

		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		// Then: no write was lost to the race
		stored, err := sessionRepo.GetByID(ctx, "sess-1")
		require.NoError(t, err)
		assert.Len(t, stored.Seats, 2*perWriter)
	})
}
