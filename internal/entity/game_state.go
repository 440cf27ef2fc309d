package entity

import "time"

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// WinnerDraw marks a match that ended without a decisive result.
const WinnerDraw = "draw"

const (
	EndReasonMarshalCaptured = "marshal_captured"
	EndReasonNoLegalMoves    = "no_legal_moves"
	EndReasonPlyLimit        = "ply_limit"
	EndReasonSurrender       = "surrender"
	EndReasonAgentTimeout    = "agent_timeout"
	EndReasonCancelled       = "cancelled"
)

// GameState is the full authoritative state of one match. It is only
// ever mutated by the game engine; everyone else works on snapshots.
type GameState struct {
	ID            string           `json:"id"`
	Board         Board            `json:"board"`
	MoveHistory   []Move           `json:"move_history,omitempty"`
	CurrentPlayer Side             `json:"current_player,omitempty"`
	Status        string           `json:"status"`
	Winner        string           `json:"winner,omitempty"`
	EndReason     string           `json:"end_reason,omitempty"`
	Captured      map[Side][]Piece `json:"captured"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewGameState builds a pending state around the given starting board.
func NewGameState(id string, board Board) *GameState {
	now := time.Now().UTC()

	return &GameState{
		ID:        id,
		Board:     board,
		Status:    StatusPending,
		Captured:  map[Side][]Piece{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (that *GameState) IsPending() bool {
	return that.Status == StatusPending
}

func (that *GameState) IsActive() bool {
	return that.Status == StatusActive
}

func (that *GameState) IsCompleted() bool {
	return that.Status == StatusCompleted
}

func (that *GameState) IsCancelled() bool {
	return that.Status == StatusCancelled
}

// IsTerminal reports whether no further mutation is possible.
func (that *GameState) IsTerminal() bool {
	return that.IsCompleted() || that.IsCancelled()
}

// Plies is the number of accepted moves so far.
func (that *GameState) Plies() int {
	return len(that.MoveHistory)
}

// LastMove returns the most recently accepted move, if any.
func (that *GameState) LastMove() (Move, bool) {
	if len(that.MoveHistory) == 0 {
		return Move{}, false
	}
	return that.MoveHistory[len(that.MoveHistory)-1], true
}

// RecordCapture flips ownership of a captured piece and adds it to the
// capturer's pile.
func (that *GameState) RecordCapture(capturer Side, piece Piece) {
	piece.Owner = capturer
	that.Captured[capturer] = append(that.Captured[capturer], piece)
}

// Clone returns a deep copy sharing no mutable memory with the
// original; mutating one never affects the other.
func (that *GameState) Clone() *GameState {
	clone := *that
	clone.Board = that.Board.Clone()

	if that.MoveHistory != nil {
		clone.MoveHistory = make([]Move, len(that.MoveHistory))
		copy(clone.MoveHistory, that.MoveHistory)
	}

	clone.Captured = make(map[Side][]Piece, len(that.Captured))
	for side, pieces := range that.Captured {
		copied := make([]Piece, len(pieces))
		copy(copied, pieces)
		clone.Captured[side] = copied
	}

	return &clone
}
