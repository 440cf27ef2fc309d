package usecase

import (
	"context"
	"fmt"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/internal/gungi"
)

// ReplayMatch folds a match's journaled moves through the rules from
// the initial arrangement and returns the reconstructed state. The
// journal only holds moves; a surrender or forfeit shows up in the
// outcome row, so the replayed status can be active for such matches.
func (that *MatchRegistry) ReplayMatch(ctx context.Context, matchID string) (*entity.GameState, error) {
	entries, err := that.ledger.Entries(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no journal for id %s", apperror.ErrMatchNotFound, matchID)
	}

	engine := gungi.NewEngine(matchID)
	if _, err = engine.Start(); err != nil {
		return nil, fmt.Errorf("failed to start replay: %w", err)
	}

	for i, entry := range entries {
		if entry.Move.MoveNumber != i+1 {
			return nil, fmt.Errorf("journal for match %s is not contiguous at entry %d", matchID, i)
		}

		move := entry.Move
		move.MoveNumber = 0

		if _, err = engine.ApplyMove(entry.Side, move); err != nil {
			return nil, fmt.Errorf("journal replay diverged at move %d: %w", entry.Move.MoveNumber, err)
		}
	}

	return engine.Snapshot(), nil
}
