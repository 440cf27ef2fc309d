package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/internal/pkg"
)

// MatchRegistry owns every live match: it creates coordinators, hands
// them out by id, lists summaries, and removes matches once they are
// terminal and safely exported.
type MatchRegistry struct {
	logger *slog.Logger

	agentGateway agentGateway
	ledger       moveLedger
	archive      matchArchive
	events       eventPublisher

	moveTimeout    time.Duration
	ledgerRequired bool

	mu      sync.RWMutex
	matches map[string]*MatchCoordinator
}

func NewMatchRegistry(
	logger *slog.Logger,
	agentGateway agentGateway,
	ledger moveLedger,
	archive matchArchive,
	events eventPublisher,
	moveTimeout time.Duration,
	ledgerRequired bool,
) *MatchRegistry {
	return &MatchRegistry{
		logger: logger.With("component", "registry"),

		agentGateway: agentGateway,
		ledger:       ledger,
		archive:      archive,
		events:       events,

		moveTimeout:    moveTimeout,
		ledgerRequired: ledgerRequired,

		matches: make(map[string]*MatchCoordinator),
	}
}

// CreateMatch pairs two participants into a new pending match.
// Participant1 plays black and will move first once the match starts.
func (that *MatchRegistry) CreateMatch(ctx context.Context, participant1, participant2 entity.Participant) (*entity.Match, error) {
	if participant1.ID == participant2.ID {
		return nil, fmt.Errorf("%w: a participant cannot play both sides", apperror.ErrInvalidStateTransition)
	}

	match := entity.NewMatch(pkg.GenerateMatchID(), participant1, participant2)
	coordinator := newMatchCoordinator(
		that.logger,
		match,
		that.agentGateway,
		that.ledger,
		that.archive,
		that.events,
		that.moveTimeout,
		that.ledgerRequired,
	)

	that.mu.Lock()
	that.matches[match.ID] = coordinator
	that.mu.Unlock()

	that.events.Publish(entity.MatchEvent{
		Type:      entity.EventMatchCreated,
		MatchID:   match.ID,
		Status:    match.Status,
		Timestamp: time.Now().UTC(),
	})

	that.logger.Info("match created",
		"matchID", match.ID,
		"participant1", participant1.ID,
		"participant2", participant2.ID,
	)

	created := coordinator.Match()

	return &created, nil
}

// GetMatch returns the coordinator of a live match.
func (that *MatchRegistry) GetMatch(matchID string) (*MatchCoordinator, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	coordinator, ok := that.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrMatchNotFound, matchID)
	}

	return coordinator, nil
}

// StartMatch activates a pending match.
func (that *MatchRegistry) StartMatch(ctx context.Context, matchID string) (*entity.GameState, error) {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	return coordinator.Start(ctx)
}

// GetPairing returns a copy of the match pairing.
func (that *MatchRegistry) GetPairing(matchID string) (*entity.Match, error) {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	match := coordinator.Match()

	return &match, nil
}

// GetState returns a snapshot of the match's game state.
func (that *MatchRegistry) GetState(matchID string) (*entity.GameState, error) {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	return coordinator.Snapshot(), nil
}

// SubmitMove applies a participant's move in the given match.
func (that *MatchRegistry) SubmitMove(ctx context.Context, matchID, participantID string, move entity.Move) (*entity.GameState, error) {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	return coordinator.SubmitMove(ctx, participantID, move)
}

// SurrenderMatch concedes the match on behalf of a participant.
func (that *MatchRegistry) SurrenderMatch(ctx context.Context, matchID, participantID string) (*entity.GameState, error) {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	return coordinator.Surrender(ctx, participantID)
}

// CancelMatch aborts the match; repeating it on a finished match is a
// no-op returning the terminal state.
func (that *MatchRegistry) CancelMatch(ctx context.Context, matchID string) (*entity.GameState, error) {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	return coordinator.Cancel(ctx)
}

// LegalMoves lists the moves a participant could play right now.
func (that *MatchRegistry) LegalMoves(matchID, participantID string) ([]entity.Move, error) {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	return coordinator.LegalMovesFor(participantID)
}

// ListMatches returns summaries of live matches, oldest first. A
// non-empty status keeps only matches in that status as of the moment
// each summary was taken; an empty status lists everything.
func (that *MatchRegistry) ListMatches(status string) []entity.MatchSummary {
	that.mu.RLock()
	coordinators := make([]*MatchCoordinator, 0, len(that.matches))
	for _, coordinator := range that.matches {
		coordinators = append(coordinators, coordinator)
	}
	that.mu.RUnlock()

	summaries := make([]entity.MatchSummary, 0, len(coordinators))
	for _, coordinator := range coordinators {
		summary := coordinator.Summary()
		if status != "" && summary.Status != status {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})

	return summaries
}

// RemoveMatch drops a match from the registry. Only terminal matches
// leave, and only after their record is safely exported; anything else
// is refused so no history is lost.
func (that *MatchRegistry) RemoveMatch(ctx context.Context, matchID string) error {
	coordinator, err := that.GetMatch(matchID)
	if err != nil {
		return err
	}

	state := coordinator.Snapshot()
	if !state.IsTerminal() {
		return fmt.Errorf("%w: cannot remove a %s match", apperror.ErrInvalidStateTransition, state.Status)
	}

	if err = coordinator.EnsureExported(ctx); err != nil {
		return fmt.Errorf("failed to export match before removal: %w", err)
	}

	that.mu.Lock()
	delete(that.matches, matchID)
	that.mu.Unlock()

	that.logger.Info("match removed", "matchID", matchID)

	return nil
}
