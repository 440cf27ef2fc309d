package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
)

// Outcome is the final verdict of a match as journaled.
type Outcome struct {
	MatchID    string
	Status     string
	Winner     string
	EndReason  string
	Plies      int
	FinishedAt time.Time
}

// MoveLedger is the append-only journal of a match: every accepted
// move lands here before it becomes visible, and the final outcome is
// recorded once. Replaying the entries through the rules reproduces
// the exact final position.
type MoveLedger interface {
	AppendMove(ctx context.Context, matchID string, side entity.Side, move entity.Move) error
	RecordOutcome(ctx context.Context, state *entity.GameState) error
	Entries(ctx context.Context, matchID string) ([]entity.JournaledMove, error)
	Outcome(ctx context.Context, matchID string) (*Outcome, error)
}

type sqliteLedger struct {
	db *sql.DB
}

func New(ctx context.Context, db *sql.DB) (MoveLedger, error) {
	that := &sqliteLedger{db: db}

	if err := that.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
	}

	return that, nil
}

func (that *sqliteLedger) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS moves (
			match_id    TEXT    NOT NULL,
			move_number INTEGER NOT NULL,
			side        TEXT    NOT NULL,
			from_x      INTEGER NOT NULL,
			from_y      INTEGER NOT NULL,
			to_x        INTEGER NOT NULL,
			to_y        INTEGER NOT NULL,
			piece_type  TEXT    NOT NULL,
			is_capture  INTEGER NOT NULL,
			played_at   TEXT    NOT NULL,
			PRIMARY KEY (match_id, move_number)
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			match_id    TEXT PRIMARY KEY,
			status      TEXT NOT NULL,
			winner      TEXT,
			end_reason  TEXT,
			plies       INTEGER NOT NULL,
			finished_at TEXT NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := that.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *sqliteLedger) AppendMove(ctx context.Context, matchID string, side entity.Side, move entity.Move) error {
	query := `INSERT INTO moves
		(match_id, move_number, side, from_x, from_y, to_x, to_y, piece_type, is_capture, played_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.db.ExecContext(ctx, query,
		matchID,
		move.MoveNumber,
		string(side),
		move.From.X, move.From.Y,
		move.To.X, move.To.Y,
		string(move.PieceType),
		move.IsCapture,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	return nil
}

func (that *sqliteLedger) RecordOutcome(ctx context.Context, state *entity.GameState) error {
	query := `INSERT INTO outcomes (match_id, status, winner, end_reason, plies, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO NOTHING`

	_, err := that.db.ExecContext(ctx, query,
		state.ID,
		state.Status,
		state.Winner,
		state.EndReason,
		state.Plies(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	return nil
}

func (that *sqliteLedger) Entries(ctx context.Context, matchID string) ([]entity.JournaledMove, error) {
	query := `SELECT move_number, side, from_x, from_y, to_x, to_y, piece_type, is_capture, played_at
		FROM moves WHERE match_id = ? ORDER BY move_number`

	rows, err := that.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves: %w", err)
	}
	defer rows.Close()

	var entries []entity.JournaledMove
	for rows.Next() {
		var (
			entry     entity.JournaledMove
			side      string
			pieceType string
			playedAt  string
		)

		err = rows.Scan(
			&entry.Move.MoveNumber,
			&side,
			&entry.Move.From.X, &entry.Move.From.Y,
			&entry.Move.To.X, &entry.Move.To.Y,
			&pieceType,
			&entry.Move.IsCapture,
			&playedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}

		entry.Side = entity.Side(side)
		entry.Move.PieceType = entity.PieceType(pieceType)
		entry.PlayedAt, err = time.Parse(time.RFC3339Nano, playedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse move timestamp: %w", err)
		}

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate moves: %w", err)
	}

	return entries, nil
}

func (that *sqliteLedger) Outcome(ctx context.Context, matchID string) (*Outcome, error) {
	query := `SELECT match_id, status, winner, end_reason, plies, finished_at
		FROM outcomes WHERE match_id = ?`

	var (
		outcome    Outcome
		finishedAt string
	)

	err := that.db.QueryRowContext(ctx, query, matchID).Scan(
		&outcome.MatchID,
		&outcome.Status,
		&outcome.Winner,
		&outcome.EndReason,
		&outcome.Plies,
		&finishedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}

	outcome.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse outcome timestamp: %w", err)
	}

	return &outcome, nil
}
