package tictactoe

import "github.com/rocketscienceinc/gameroom-backend/internal/entity"

const (
	ResultOngoing = "ongoing"
	ResultWon     = "won"
	ResultDraw    = "draw"
)

// WinCombos lists every winning triple over the flat 3x3 board: rows, columns,
// then diagonals. With alternating moves at most one symbol can hold a triple,
// so enumeration order does not affect the verdict.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Result struct {
	State  string
	Winner string
	Line   [3]int
}

// Evaluate reports the verdict for a board: a completed triple wins, a full
// board without one is a draw, anything else is still in play. Pure function,
// never errors.
func Evaluate(board [9]string) Result {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return Result{State: ResultWon, Winner: a, Line: combo}
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return Result{State: ResultOngoing}
		}
	}

	return Result{State: ResultDraw}
}
