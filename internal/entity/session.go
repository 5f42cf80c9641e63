package entity

const (
	PhaseWaiting  = "waiting"
	PhasePlaying  = "playing"
	PhaseFinished = "finished"

	SymbolX = "X"
	SymbolO = "O"

	OutcomeDraw = "draw"

	EmptyCell = ""
)

// Session is one game instance shared by up to two seats. It is stored as a
// single JSON blob, so every field the clients see lives here.
type Session struct {
	ID          string    `json:"id"`
	RoomCode    string    `json:"room_code"`
	Board       [9]string `json:"board"`
	Turn        string    `json:"current_turn"`
	Phase       string    `json:"status"`
	Outcome     string    `json:"winner,omitempty"`
	WinningLine []int     `json:"winning_line,omitempty"`
	Seats       []*Seat   `json:"players,omitempty"`
}

// Seat binds one participant to one symbol within a session. ParticipantKey is
// an opaque identity token and must never reach other clients.
type Seat struct {
	ParticipantKey string `json:"participant_key,omitempty"`
	Symbol         string `json:"symbol"`
	IsHost         bool   `json:"is_host"`
}

func NewSession(id, roomCode string) *Session {
	return &Session{
		ID:       id,
		RoomCode: roomCode,
		Turn:     SymbolX,
		Phase:    PhaseWaiting,
	}
}

func (that *Session) IsWaiting() bool {
	return that.Phase == PhaseWaiting
}

func (that *Session) IsPlaying() bool {
	return that.Phase == PhasePlaying
}

func (that *Session) IsFinished() bool {
	return that.Phase == PhaseFinished
}

// SeatOf returns the seat held by the given participant, or nil.
func (that *Session) SeatOf(participantKey string) *Seat {
	for _, seat := range that.Seats {
		if seat.ParticipantKey == participantKey {
			return seat
		}
	}

	return nil
}

func (that *Session) AddSeat(participantKey, symbol string, isHost bool) *Seat {
	seat := &Seat{
		ParticipantKey: participantKey,
		Symbol:         symbol,
		IsHost:         isHost,
	}
	that.Seats = append(that.Seats, seat)

	return seat
}

// Reset starts a fresh game in the same room. Seats are retained.
func (that *Session) Reset() {
	that.Board = [9]string{}
	that.Turn = SymbolX
	that.Phase = PhasePlaying
	that.Outcome = ""
	that.WinningLine = nil
}

// Sanitized returns a deep copy safe to broadcast: seats keep only their
// symbol and host flag.
func (that *Session) Sanitized() *Session {
	snapshot := *that

	if that.WinningLine != nil {
		snapshot.WinningLine = append([]int(nil), that.WinningLine...)
	}

	snapshot.Seats = make([]*Seat, 0, len(that.Seats))
	for _, seat := range that.Seats {
		snapshot.Seats = append(snapshot.Seats, &Seat{
			Symbol: seat.Symbol,
			IsHost: seat.IsHost,
		})
	}

	return &snapshot
}

// OtherSymbol returns the opposing mark.
func OtherSymbol(symbol string) string {
	if symbol == SymbolX {
		return SymbolO
	}

	return SymbolX
}
