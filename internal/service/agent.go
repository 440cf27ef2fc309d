package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/internal/gungi"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// AgentService produces moves for autonomous participants. It works on
// a snapshot and honors the deadline of the passed context; a slow or
// interrupted agent returns the context error.
type AgentService interface {
	ProposeMove(ctx context.Context, state *entity.GameState, side entity.Side, profile entity.Participant) (entity.Move, error)
}

type agentService struct {
	logger     *slog.Logger
	thinkDelay time.Duration
}

func NewAgentService(logger *slog.Logger, thinkDelay time.Duration) AgentService {
	return &agentService{
		logger:     logger.With("component", "agent"),
		thinkDelay: thinkDelay,
	}
}

func (that *agentService) ProposeMove(ctx context.Context, state *entity.GameState, side entity.Side, profile entity.Participant) (entity.Move, error) {
	moves := gungi.LegalMoves(&state.Board, side)
	if len(moves) == 0 {
		return entity.Move{}, ErrNoAvailableMoves
	}

	if that.thinkDelay > 0 {
		timer := time.NewTimer(that.thinkDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return entity.Move{}, fmt.Errorf("agent interrupted: %w", ctx.Err())
		case <-timer.C:
		}
	}

	var chosen entity.Move
	switch profile.Difficulty {
	case entity.EasyDifficulty:
		chosen = moves[rand.Intn(len(moves))] //nolint: gosec // it's ok
	case entity.HardDifficulty:
		chosen = that.pickScored(&state.Board, moves, side, profile.Personality)
	default:
		chosen = that.pickGreedy(&state.Board, moves)
	}

	that.logger.Debug("agent chose move",
		"matchID", state.ID,
		"side", side,
		"difficulty", profile.Difficulty,
		"move", chosen,
	)

	return chosen, nil
}

// pickGreedy takes the most valuable capture available and otherwise a
// random quiet move.
func (that *agentService) pickGreedy(board *entity.Board, moves []entity.Move) entity.Move {
	var best []entity.Move
	bestValue := 0

	for _, move := range moves {
		if !move.IsCapture {
			continue
		}

		target, _ := board.Top(move.To)
		value := gungi.PieceValue(target.Type)

		switch {
		case value > bestValue:
			bestValue = value
			best = []entity.Move{move}
		case value == bestValue:
			best = append(best, move)
		}
	}

	if len(best) == 0 {
		best = moves
	}

	return best[rand.Intn(len(best))] //nolint: gosec // it's ok
}

// pickScored ranks every move by material gain, exposure of the moved
// piece, and forward progress, with weights shifted by the agent's
// personality.
func (that *agentService) pickScored(board *entity.Board, moves []entity.Move, side entity.Side, personality string) entity.Move {
	captureWeight, riskWeight := 2, 2
	switch personality {
	case entity.AggressivePersonality:
		captureWeight, riskWeight = 3, 1
	case entity.DefensivePersonality:
		captureWeight, riskWeight = 1, 3
	}

	attacked := attackedCells(board, side.Opponent())

	var best []entity.Move
	bestScore := 0
	first := true

	for _, move := range moves {
		score := 0

		if move.IsCapture {
			target, _ := board.Top(move.To)
			score += gungi.PieceValue(target.Type) * captureWeight
		}

		if attacked[move.To] {
			mover, _ := board.Top(move.From)
			score -= gungi.PieceValue(mover.Type) * riskWeight
		}

		if (move.To.Y-move.From.Y)*side.Forward() > 0 {
			score++
		}

		switch {
		case first || score > bestScore:
			bestScore = score
			best = []entity.Move{move}
			first = false
		case score == bestScore:
			best = append(best, move)
		}
	}

	return best[rand.Intn(len(best))] //nolint: gosec // it's ok
}

// attackedCells collects every destination side can reach, as a cheap
// one-ply threat map.
func attackedCells(board *entity.Board, side entity.Side) map[entity.Coordinate]bool {
	attacked := make(map[entity.Coordinate]bool)
	for _, move := range gungi.LegalMoves(board, side) {
		attacked[move.To] = true
	}

	return attacked
}
