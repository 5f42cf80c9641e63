package apperror

import "errors"

// Precondition violations reported to the caller of the failing operation.
// None of them leaves the session partially modified.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNotJoinable  = errors.New("game is not accepting new players")
	ErrRoomFull     = errors.New("game is already full")
	ErrNotInSession = errors.New("player has no seat in this game")
	ErrNotPlayable  = errors.New("game is not in progress")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrNotFinished  = errors.New("game is not finished yet")

	// ErrRoomCodeTaken is internal to creation: the directory regenerates the
	// code and retries, callers never see it.
	ErrRoomCodeTaken = errors.New("room code already taken")
)
