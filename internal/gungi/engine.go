package gungi

import (
	"fmt"
	"sync"
	"time"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
)

// Engine owns the game state of a single match and is the only place
// it mutates. Every successful mutation replaces the state with a
// fresh copy, so snapshots handed out earlier stay immutable and
// readers never observe a half-applied move.
type Engine struct {
	mu       sync.RWMutex
	state    *entity.GameState
	maxPlies int
}

// Staged is a validated move together with the resulting state, not
// yet visible to anyone. Commit publishes it only if the state the
// move was validated against is still current.
type Staged struct {
	base *entity.GameState
	next *entity.GameState
	move entity.Move
}

// Move returns the move as it will appear in the history, with its
// sequence number assigned.
func (that *Staged) Move() entity.Move {
	return that.move
}

// State returns a copy of the state the move produces once committed.
func (that *Staged) State() *entity.GameState {
	return that.next.Clone()
}

// NewEngine creates an engine holding a pending match on the initial
// board arrangement.
func NewEngine(matchID string) *Engine {
	return &Engine{
		state:    entity.NewGameState(matchID, InitialBoard()),
		maxPlies: MaxPlies,
	}
}

// NewEngineFromState restores an engine around a previously serialized
// state, for replay and archive inspection. The engine takes ownership
// of a private copy.
func NewEngineFromState(state *entity.GameState) *Engine {
	return &Engine{
		state:    state.Clone(),
		maxPlies: MaxPlies,
	}
}

// Snapshot returns a deep copy of the current state. The copy is the
// caller's to keep; later moves never show through it.
func (that *Engine) Snapshot() *entity.GameState {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.state.Clone()
}

// Start moves the match from pending to active and gives black the
// first turn.
func (that *Engine) Start() (*entity.GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.state.IsPending() {
		return nil, fmt.Errorf("%w: cannot start a %s match", apperror.ErrInvalidStateTransition, that.state.Status)
	}

	next := that.state.Clone()
	next.Status = entity.StatusActive
	next.CurrentPlayer = entity.SideBlack
	next.UpdatedAt = time.Now().UTC()
	that.state = next

	return next.Clone(), nil
}

// Stage validates side's move against the current state and prepares
// the successor state without publishing it. The board mutation,
// capture bookkeeping, turn hand-over and terminal evaluation all
// happen here, on a private clone.
func (that *Engine) Stage(side entity.Side, move entity.Move) (*Staged, error) {
	that.mu.RLock()
	base := that.state
	that.mu.RUnlock()

	if !base.IsActive() {
		return nil, fmt.Errorf("%w: cannot move in a %s match", apperror.ErrInvalidStateTransition, base.Status)
	}
	if side != base.CurrentPlayer {
		return nil, apperror.ErrOutOfTurn
	}
	if err := IsLegal(&base.Board, move, side); err != nil {
		return nil, err
	}

	next := base.Clone()
	applied := move
	applied.MoveNumber = len(next.MoveHistory) + 1

	mover, _ := next.Board.Pop(move.From)
	marshalFell := false
	if applied.IsCapture {
		captured, _ := next.Board.Pop(move.To)
		next.RecordCapture(side, captured)
		marshalFell = captured.Type == entity.PieceMarshal
	}
	next.Board.Push(move.To, mover)

	next.MoveHistory = append(next.MoveHistory, applied)
	next.UpdatedAt = time.Now().UTC()

	switch {
	case marshalFell:
		next.Status = entity.StatusCompleted
		next.Winner = string(side)
		next.EndReason = entity.EndReasonMarshalCaptured
		next.CurrentPlayer = ""
	case len(next.MoveHistory) >= that.maxPlies:
		next.Status = entity.StatusCompleted
		next.Winner = entity.WinnerDraw
		next.EndReason = entity.EndReasonPlyLimit
		next.CurrentPlayer = ""
	case !HasLegalMove(&next.Board, side.Opponent()):
		next.Status = entity.StatusCompleted
		next.Winner = string(side)
		next.EndReason = entity.EndReasonNoLegalMoves
		next.CurrentPlayer = ""
	default:
		next.CurrentPlayer = side.Opponent()
	}

	return &Staged{base: base, next: next, move: applied}, nil
}

// Commit publishes a staged move. If another mutation landed since the
// move was staged the commit is refused with ErrConcurrencyConflict
// and the state is left untouched.
func (that *Engine) Commit(staged *Staged) (*entity.GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != staged.base {
		return nil, apperror.ErrConcurrencyConflict
	}
	that.state = staged.next

	return staged.next.Clone(), nil
}

// ApplyMove stages and immediately commits a move.
func (that *Engine) ApplyMove(side entity.Side, move entity.Move) (*entity.GameState, error) {
	staged, err := that.Stage(side, move)
	if err != nil {
		return nil, err
	}

	return that.Commit(staged)
}

// Surrender ends an active match with side conceding.
func (that *Engine) Surrender(side entity.Side) (*entity.GameState, error) {
	return that.Forfeit(side, entity.EndReasonSurrender)
}

// Forfeit ends an active match against side for the given reason, such
// as an unresponsive agent.
func (that *Engine) Forfeit(side entity.Side, reason string) (*entity.GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.state.IsActive() {
		return nil, fmt.Errorf("%w: cannot forfeit a %s match", apperror.ErrInvalidStateTransition, that.state.Status)
	}
	if !side.IsValid() {
		return nil, fmt.Errorf("%w: unknown side %q", apperror.ErrInvalidStateTransition, side)
	}

	next := that.state.Clone()
	next.Status = entity.StatusCompleted
	next.Winner = string(side.Opponent())
	next.EndReason = reason
	next.CurrentPlayer = ""
	next.UpdatedAt = time.Now().UTC()
	that.state = next

	return next.Clone(), nil
}

// Cancel aborts a match that has not finished. On an already terminal
// state it is a no-op, so repeated cancels converge on the same
// outcome. The second return reports whether this call changed the
// state.
func (that *Engine) Cancel() (*entity.GameState, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state.IsTerminal() {
		return that.state.Clone(), false
	}

	next := that.state.Clone()
	next.Status = entity.StatusCancelled
	next.EndReason = entity.EndReasonCancelled
	next.CurrentPlayer = ""
	next.UpdatedAt = time.Now().UTC()
	that.state = next

	return next.Clone(), true
}
