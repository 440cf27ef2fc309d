package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *GameState {
	board := NewBoard()
	board.Push(Coordinate{X: 4, Y: 8}, Piece{Type: PieceMarshal, Owner: SideBlack})
	board.Push(Coordinate{X: 4, Y: 0}, Piece{Type: PieceMarshal, Owner: SideWhite})
	board.Push(Coordinate{X: 2, Y: 5}, Piece{Type: PieceSoldier, Owner: SideBlack})
	board.Push(Coordinate{X: 2, Y: 5}, Piece{Type: PieceArcher, Owner: SideBlack})

	return NewGameState("match-1", board)
}

func TestGameState_StatusMethods(t *testing.T) {
	state := newTestState()

	assert.True(t, state.IsPending())
	assert.False(t, state.IsTerminal())

	state.Status = StatusActive
	assert.True(t, state.IsActive())

	state.Status = StatusCompleted
	assert.True(t, state.IsCompleted())
	assert.True(t, state.IsTerminal())

	state.Status = StatusCancelled
	assert.True(t, state.IsCancelled())
	assert.True(t, state.IsTerminal())
}

func TestGameState_RecordCapture(t *testing.T) {
	// Given: a fresh state and a white piece about to be captured
	state := newTestState()
	captured := Piece{Type: PieceGeneral, Owner: SideWhite}

	// When: black captures it
	state.RecordCapture(SideBlack, captured)

	// Then: the piece joins black's pile with black as its new owner
	require.Len(t, state.Captured[SideBlack], 1)
	assert.Equal(t, PieceGeneral, state.Captured[SideBlack][0].Type)
	assert.Equal(t, SideBlack, state.Captured[SideBlack][0].Owner)
	assert.Empty(t, state.Captured[SideWhite])
}

func TestGameState_Clone(t *testing.T) {
	// Given: a state with history and captures
	state := newTestState()
	state.Status = StatusActive
	state.CurrentPlayer = SideBlack
	state.MoveHistory = []Move{{
		From:       Coordinate{X: 2, Y: 5},
		To:         Coordinate{X: 2, Y: 4},
		PieceType:  PieceArcher,
		MoveNumber: 1,
	}}
	state.RecordCapture(SideWhite, Piece{Type: PieceSoldier, Owner: SideBlack})

	// When: cloning and mutating the original
	clone := state.Clone()
	state.MoveHistory[0].MoveNumber = 99
	state.Board.Pop(Coordinate{X: 2, Y: 5})
	state.Captured[SideWhite][0].Type = PieceMarshal

	// Then: the clone is unaffected
	assert.Equal(t, 1, clone.MoveHistory[0].MoveNumber)
	assert.Equal(t, 2, clone.Board.At(Coordinate{X: 2, Y: 5}).Height())
	assert.Equal(t, PieceSoldier, clone.Captured[SideWhite][0].Type)
}

func TestGameState_SerializationRoundTrip(t *testing.T) {
	// Given: a mid-game state with history, captures, and stacks
	state := newTestState()
	state.Status = StatusActive
	state.CurrentPlayer = SideWhite
	state.MoveHistory = []Move{
		{From: Coordinate{X: 2, Y: 5}, To: Coordinate{X: 2, Y: 4}, PieceType: PieceArcher, MoveNumber: 1},
		{From: Coordinate{X: 4, Y: 0}, To: Coordinate{X: 4, Y: 1}, PieceType: PieceMarshal, MoveNumber: 2},
	}
	state.RecordCapture(SideBlack, Piece{Type: PieceLancer, Owner: SideWhite})

	// When: serializing and deserializing
	raw, err := json.Marshal(state)
	require.NoError(t, err)

	var restored GameState
	require.NoError(t, json.Unmarshal(raw, &restored))

	// Then: the restored state is semantically identical
	assert.Equal(t, state, &restored)
}

func TestGameState_LastMove(t *testing.T) {
	state := newTestState()

	_, ok := state.LastMove()
	assert.False(t, ok)

	state.MoveHistory = []Move{
		{From: Coordinate{X: 0, Y: 6}, To: Coordinate{X: 0, Y: 5}, PieceType: PieceSoldier, MoveNumber: 1},
		{From: Coordinate{X: 0, Y: 2}, To: Coordinate{X: 0, Y: 3}, PieceType: PieceSoldier, MoveNumber: 2},
	}

	last, ok := state.LastMove()
	require.True(t, ok)
	assert.Equal(t, 2, last.MoveNumber)
	assert.Equal(t, 2, state.Plies())
}

func TestMove_SameAction(t *testing.T) {
	move := Move{From: Coordinate{X: 1, Y: 1}, To: Coordinate{X: 1, Y: 2}, PieceType: PieceSoldier}

	numbered := move
	numbered.MoveNumber = 7
	assert.True(t, move.SameAction(numbered))

	other := move
	other.IsCapture = true
	assert.False(t, move.SameAction(other))
}
