package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/internal/gungi"
)

// agentMoveAttempts is how many times an agent is asked for a move on
// its turn before the coordinator gives up on it.
const agentMoveAttempts = 2

type agentGateway interface {
	ProposeMove(ctx context.Context, state *entity.GameState, side entity.Side, profile entity.Participant) (entity.Move, error)
}

type moveLedger interface {
	AppendMove(ctx context.Context, matchID string, side entity.Side, move entity.Move) error
	RecordOutcome(ctx context.Context, state *entity.GameState) error
	Entries(ctx context.Context, matchID string) ([]entity.JournaledMove, error)
}

type matchArchive interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
}

type eventPublisher interface {
	Publish(event entity.MatchEvent)
}

// MatchCoordinator drives one match from creation to its terminal
// state: it serializes every mutation behind a per-match lock, asks
// the agent gateway for moves when it is an agent's turn, journals
// accepted moves, publishes events, and exports the finished match.
type MatchCoordinator struct {
	logger *slog.Logger

	match  *entity.Match
	engine *gungi.Engine

	agentGateway agentGateway
	ledger       moveLedger
	archive      matchArchive
	events       eventPublisher

	moveTimeout    time.Duration
	ledgerRequired bool

	mu       sync.Mutex
	exported bool

	wake chan struct{}
	done chan struct{}
}

func newMatchCoordinator(
	logger *slog.Logger,
	match *entity.Match,
	agentGateway agentGateway,
	ledger moveLedger,
	archive matchArchive,
	events eventPublisher,
	moveTimeout time.Duration,
	ledgerRequired bool,
) *MatchCoordinator {
	return &MatchCoordinator{
		logger: logger.With("component", "coordinator", "matchID", match.ID),

		match:  match,
		engine: gungi.NewEngine(match.ID),

		agentGateway: agentGateway,
		ledger:       ledger,
		archive:      archive,
		events:       events,

		moveTimeout:    moveTimeout,
		ledgerRequired: ledgerRequired,

		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Match returns a copy of the pairing.
func (that *MatchCoordinator) Match() entity.Match {
	that.mu.Lock()
	defer that.mu.Unlock()

	return *that.match
}

// Snapshot returns a deep copy of the current game state.
func (that *MatchCoordinator) Snapshot() *entity.GameState {
	return that.engine.Snapshot()
}

// Summary returns the listing projection of the match.
func (that *MatchCoordinator) Summary() entity.MatchSummary {
	state := that.engine.Snapshot()

	that.mu.Lock()
	match := *that.match
	that.mu.Unlock()

	return entity.MatchSummary{
		ID:           match.ID,
		Participant1: match.Participant1.ID,
		Participant2: match.Participant2.ID,
		Status:       state.Status,
		Winner:       state.Winner,
		Plies:        state.Plies(),
		CreatedAt:    match.CreatedAt,
		UpdatedAt:    state.UpdatedAt,
	}
}

// Done is closed once the turn loop has exited.
func (that *MatchCoordinator) Done() <-chan struct{} {
	return that.done
}

// Start activates the match and launches the turn loop that plays
// agent turns until the match is over. Starting twice fails with
// ErrInvalidStateTransition and does not launch a second loop.
func (that *MatchCoordinator) Start(ctx context.Context) (*entity.GameState, error) {
	that.mu.Lock()

	state, err := that.engine.Start()
	if err != nil {
		that.mu.Unlock()
		return nil, fmt.Errorf("failed to start match: %w", err)
	}

	that.match.Status = state.Status
	that.match.UpdatedAt = state.UpdatedAt

	that.events.Publish(entity.MatchEvent{
		Type:       entity.EventMatchStarted,
		MatchID:    that.match.ID,
		NextPlayer: state.CurrentPlayer,
		Status:     state.Status,
		Timestamp:  time.Now().UTC(),
	})

	that.mu.Unlock()

	go that.run(ctx)

	return state, nil
}

// SubmitMove applies a move on behalf of a participant, typically a
// human arriving over a transport. Agents never call this; their moves
// come through the turn loop.
func (that *MatchCoordinator) SubmitMove(ctx context.Context, participantID string, move entity.Move) (*entity.GameState, error) {
	side, ok := that.match.SideOf(participantID)
	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrParticipantNotFound, participantID)
	}

	state, err := that.applyMove(ctx, side, move)
	if err != nil {
		return nil, err
	}

	that.nudge()

	return state, nil
}

// Surrender ends the match with the given participant conceding.
func (that *MatchCoordinator) Surrender(ctx context.Context, participantID string) (*entity.GameState, error) {
	side, ok := that.match.SideOf(participantID)
	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrParticipantNotFound, participantID)
	}

	that.mu.Lock()

	state, err := that.engine.Surrender(side)
	if err != nil {
		that.mu.Unlock()
		return nil, fmt.Errorf("failed to surrender: %w", err)
	}

	that.finalize(ctx, state)
	that.mu.Unlock()

	that.nudge()

	return state, nil
}

// Cancel aborts the match. Cancelling a match that already reached a
// terminal state changes nothing and returns that state, so repeated
// cancels are safe.
func (that *MatchCoordinator) Cancel(ctx context.Context) (*entity.GameState, error) {
	that.mu.Lock()

	state, changed := that.engine.Cancel()
	if changed {
		that.finalize(ctx, state)
	}

	that.mu.Unlock()

	that.nudge()

	return state, nil
}

// LegalMovesFor lists every move the participant could play right now.
// The list is empty when the match is not active; listing is a query
// and is allowed out of turn.
func (that *MatchCoordinator) LegalMovesFor(participantID string) ([]entity.Move, error) {
	side, ok := that.match.SideOf(participantID)
	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrParticipantNotFound, participantID)
	}

	state := that.engine.Snapshot()
	if !state.IsActive() {
		return nil, nil
	}

	return gungi.LegalMoves(&state.Board, side), nil
}

// EnsureExported writes the terminal match to the archive and the
// outcome to the ledger, once. It fails on a non-terminal match and
// retries cleanly after an export error.
func (that *MatchCoordinator) EnsureExported(ctx context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.export(ctx)
}

// applyMove runs the full mutation pipeline under the match lock:
// validate and stage, journal, commit, publish. The move is durable
// before it is visible; a required ledger that fails rejects the move
// with the state untouched.
func (that *MatchCoordinator) applyMove(ctx context.Context, side entity.Side, move entity.Move) (*entity.GameState, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	staged, err := that.engine.Stage(side, move)
	if err != nil {
		return nil, err
	}

	if err = that.ledger.AppendMove(ctx, that.match.ID, side, staged.Move()); err != nil {
		if that.ledgerRequired {
			return nil, fmt.Errorf("failed to append move to ledger: %w", err)
		}
		that.logger.Error("failed to append move to ledger", "error", err)
	}

	state, err := that.engine.Commit(staged)
	if err != nil {
		return nil, fmt.Errorf("failed to commit move: %w", err)
	}

	applied := staged.Move()
	that.events.Publish(entity.MatchEvent{
		Type:       entity.EventMoveApplied,
		MatchID:    that.match.ID,
		Move:       &applied,
		NextPlayer: state.CurrentPlayer,
		Status:     state.Status,
		Plies:      state.Plies(),
		Timestamp:  time.Now().UTC(),
	})

	if state.IsTerminal() {
		that.finalize(ctx, state)
	}

	return state, nil
}

// finalize is called under the match lock when the state just turned
// terminal: it syncs the pairing, publishes the closing event, and
// exports the record.
func (that *MatchCoordinator) finalize(ctx context.Context, state *entity.GameState) {
	that.match.Status = state.Status
	that.match.UpdatedAt = state.UpdatedAt

	eventType := entity.EventMatchCompleted
	if state.IsCancelled() {
		eventType = entity.EventMatchCancelled
	}

	that.events.Publish(entity.MatchEvent{
		Type:      eventType,
		MatchID:   that.match.ID,
		Status:    state.Status,
		Winner:    state.Winner,
		EndReason: state.EndReason,
		Plies:     state.Plies(),
		Timestamp: time.Now().UTC(),
	})

	if err := that.export(ctx); err != nil {
		that.logger.Error("failed to export finished match", "error", err)
	}
}

// export writes the outcome and the archive record, once. Caller holds
// the match lock.
func (that *MatchCoordinator) export(ctx context.Context) error {
	if that.exported {
		return nil
	}

	state := that.engine.Snapshot()
	if !state.IsTerminal() {
		return fmt.Errorf("%w: cannot export a %s match", apperror.ErrInvalidStateTransition, state.Status)
	}

	if err := that.ledger.RecordOutcome(ctx, state); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	record := &entity.MatchRecord{
		Match:      *that.match,
		GameState:  *state,
		ArchivedAt: time.Now().UTC(),
	}
	if err := that.archive.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to archive match: %w", err)
	}

	that.exported = true

	return nil
}

// run is the turn loop: it sleeps through human turns and plays agent
// turns until the match reaches a terminal state or the context ends.
func (that *MatchCoordinator) run(ctx context.Context) {
	defer close(that.done)

	log := that.logger.With("method", "run")

	for {
		state := that.engine.Snapshot()
		if state.IsTerminal() {
			log.Info("match finished",
				"status", state.Status,
				"winner", state.Winner,
				"endReason", state.EndReason,
				"plies", state.Plies(),
			)
			return
		}

		participant := that.match.ParticipantFor(state.CurrentPlayer)
		if !participant.IsAgent() {
			select {
			case <-ctx.Done():
				return
			case <-that.wake:
				continue
			}
		}

		that.playAgentTurn(ctx, state, state.CurrentPlayer, participant)

		if ctx.Err() != nil {
			return
		}
	}
}

// playAgentTurn asks the gateway for a move with a per-attempt budget
// and applies it. One failed attempt earns a retry; a second
// consecutive timeout forfeits the match against the agent, while any
// other double failure cancels it.
func (that *MatchCoordinator) playAgentTurn(ctx context.Context, state *entity.GameState, side entity.Side, profile entity.Participant) {
	log := that.logger.With("method", "playAgentTurn", "side", side)

	var lastErr error
	consecutiveTimeouts := 0

	for attempt := 1; attempt <= agentMoveAttempts; attempt++ {
		moveCtx, cancel := context.WithTimeout(ctx, that.moveTimeout)
		move, err := that.agentGateway.ProposeMove(moveCtx, state, side, profile)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %s", apperror.ErrAgentTimeout, profile.ID)
				consecutiveTimeouts++
			} else {
				consecutiveTimeouts = 0
			}
			log.Warn("agent failed to propose a move", "attempt", attempt, "error", err)

			lastErr = err
			state = that.engine.Snapshot()
			continue
		}

		if _, err = that.applyMove(ctx, side, move); err != nil {
			log.Warn("agent move was rejected", "attempt", attempt, "move", move, "error", err)

			lastErr = err
			consecutiveTimeouts = 0
			state = that.engine.Snapshot()
			continue
		}

		return
	}

	if ctx.Err() != nil {
		return
	}
	if that.engine.Snapshot().IsTerminal() {
		return
	}

	if consecutiveTimeouts >= agentMoveAttempts {
		log.Error("agent timed out twice, forfeiting", "agentID", profile.ID)

		that.mu.Lock()
		finalState, err := that.engine.Forfeit(side, entity.EndReasonAgentTimeout)
		if err == nil {
			that.finalize(ctx, finalState)
		}
		that.mu.Unlock()

		if err != nil {
			log.Error("failed to forfeit match", "error", err)
		}

		return
	}

	log.Error("agent cannot produce a legal move, cancelling match", "error", lastErr)

	if _, err := that.Cancel(ctx); err != nil {
		log.Error("failed to cancel match", "error", err)
	}
}

// nudge wakes the turn loop after an externally applied mutation.
func (that *MatchCoordinator) nudge() {
	select {
	case that.wake <- struct{}{}:
	default:
	}
}
