package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	// Given / When: a fresh session
	session := NewSession("01J5", "ABC123")

	// Then: it waits for a second seat with an empty board and X to move
	assert.Equal(t, "01J5", session.ID)
	assert.Equal(t, "ABC123", session.RoomCode)
	assert.Equal(t, SymbolX, session.Turn)
	assert.True(t, session.IsWaiting())

	for _, cell := range session.Board {
		assert.Equal(t, EmptyCell, cell)
	}
}

func TestSession_PhaseMethods(t *testing.T) {
	t.Run("IsWaiting returns true when phase is waiting", func(t *testing.T) {
		session := &Session{Phase: PhaseWaiting}
		assert.True(t, session.IsWaiting())
		assert.False(t, session.IsPlaying())
	})

	t.Run("IsPlaying returns true when phase is playing", func(t *testing.T) {
		session := &Session{Phase: PhasePlaying}
		assert.True(t, session.IsPlaying())
		assert.False(t, session.IsFinished())
	})

	t.Run("IsFinished returns true when phase is finished", func(t *testing.T) {
		session := &Session{Phase: PhaseFinished}
		assert.True(t, session.IsFinished())
		assert.False(t, session.IsWaiting())
	})
}

func TestSession_SeatOf(t *testing.T) {
	// Given: a session with two seats
	session := NewSession("id", "CODE42")
	host := session.AddSeat("key-host", SymbolX, true)
	guest := session.AddSeat("key-guest", SymbolO, false)

	t.Run("Finds the seat by participant key", func(t *testing.T) {
		assert.Same(t, host, session.SeatOf("key-host"))
		assert.Same(t, guest, session.SeatOf("key-guest"))
	})

	t.Run("Returns nil for an unknown participant", func(t *testing.T) {
		assert.Nil(t, session.SeatOf("key-stranger"))
	})
}

func TestSession_Reset(t *testing.T) {
	// Given: a finished session with a winner
	session := NewSession("id", "CODE42")
	session.AddSeat("a", SymbolX, true)
	session.AddSeat("b", SymbolO, false)
	session.Board = [9]string{SymbolX, SymbolX, SymbolX, SymbolO, SymbolO, "", "", "", ""}
	session.Turn = SymbolO
	session.Phase = PhaseFinished
	session.Outcome = SymbolX
	session.WinningLine = []int{0, 1, 2}

	// When: resetting the session
	session.Reset()

	// Then: the board is fresh, X moves, play resumes and both seats remain
	require.True(t, session.IsPlaying())
	assert.Equal(t, SymbolX, session.Turn)
	assert.Empty(t, session.Outcome)
	assert.Nil(t, session.WinningLine)
	assert.Len(t, session.Seats, 2)

	for _, cell := range session.Board {
		assert.Equal(t, EmptyCell, cell)
	}
}

func TestSession_Sanitized(t *testing.T) {
	// Given: a session whose seats carry identity tokens
	session := NewSession("id", "CODE42")
	session.AddSeat("secret-a", SymbolX, true)
	session.AddSeat("secret-b", SymbolO, false)
	session.WinningLine = []int{0, 4, 8}

	// When: producing the broadcast snapshot
	snapshot := session.Sanitized()

	// Then: seats keep symbol and host flag but never the participant key
	require.Len(t, snapshot.Seats, 2)
	for _, seat := range snapshot.Seats {
		assert.Empty(t, seat.ParticipantKey)
	}
	assert.Equal(t, SymbolX, snapshot.Seats[0].Symbol)
	assert.True(t, snapshot.Seats[0].IsHost)
	assert.False(t, snapshot.Seats[1].IsHost)

	// Then: mutating the snapshot leaves the original untouched
	snapshot.Seats[0].Symbol = SymbolO
	snapshot.WinningLine[0] = 7
	assert.Equal(t, SymbolX, session.Seats[0].Symbol)
	assert.Equal(t, 0, session.WinningLine[0])
	assert.Equal(t, "secret-a", session.Seats[0].ParticipantKey)
}

func TestOtherSymbol(t *testing.T) {
	assert.Equal(t, SymbolO, OtherSymbol(SymbolX))
	assert.Equal(t, SymbolX, OtherSymbol(SymbolO))
}
