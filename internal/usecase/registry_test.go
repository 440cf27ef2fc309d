package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
)

func TestMatchRegistry_CreateMatch(t *testing.T) {
	t.Run("pairs two participants", func(t *testing.T) {
		// Given
		h := newHarness(time.Second, true)
		black, white := humans()

		// When
		match, err := h.registry.CreateMatch(context.Background(), black, white)

		// Then
		require.NoError(t, err)
		assert.NotEmpty(t, match.ID)
		assert.Equal(t, black.ID, match.Participant1.ID)
		assert.Equal(t, white.ID, match.Participant2.ID)
		assert.Equal(t, entity.StatusPending, match.Status)

		assert.Equal(t, []string{entity.EventMatchCreated}, h.publisher.typesFor(match.ID))
	})

	t.Run("rejects one participant on both sides", func(t *testing.T) {
		// Given
		h := newHarness(time.Second, true)
		player := entity.NewHumanParticipant("user-1", "Solo")

		// When
		_, err := h.registry.CreateMatch(context.Background(), player, player)

		// Then
		assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)
	})
}

func TestMatchRegistry_UnknownMatchID(t *testing.T) {
	h := newHarness(time.Second, true)
	ctx := context.Background()

	_, err := h.registry.GetState("missing")
	assert.ErrorIs(t, err, apperror.ErrMatchNotFound)

	_, err = h.registry.GetPairing("missing")
	assert.ErrorIs(t, err, apperror.ErrMatchNotFound)

	_, err = h.registry.StartMatch(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrMatchNotFound)

	move := entity.Move{From: cell(4, 6), To: cell(4, 5), PieceType: entity.PieceSoldier}
	_, err = h.registry.SubmitMove(ctx, "missing", "user-1", move)
	assert.ErrorIs(t, err, apperror.ErrMatchNotFound)

	err = h.registry.RemoveMatch(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
}

func TestMatchRegistry_GetPairing(t *testing.T) {
	// Given
	h := newHarness(time.Second, true)
	black, white := humans()

	created, err := h.registry.CreateMatch(context.Background(), black, white)
	require.NoError(t, err)

	// When
	pairing, err := h.registry.GetPairing(created.ID)

	// Then
	require.NoError(t, err)
	assert.Equal(t, created.ID, pairing.ID)
	assert.Equal(t, black, pairing.Participant1)
	assert.Equal(t, white, pairing.Participant2)
}

func TestMatchRegistry_ListMatches(t *testing.T) {
	// Given
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(time.Second, true)
	black, white := humans()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		match, err := h.registry.CreateMatch(ctx, black, white)
		require.NoError(t, err)
		ids = append(ids, match.ID)
	}

	_, err := h.registry.StartMatch(ctx, ids[0])
	require.NoError(t, err)
	move := entity.Move{From: cell(4, 6), To: cell(4, 5), PieceType: entity.PieceSoldier}
	_, err = h.registry.SubmitMove(ctx, ids[0], black.ID, move)
	require.NoError(t, err)

	// When
	summaries := h.registry.ListMatches("")

	// Then
	require.Len(t, summaries, 3)

	listed := make(map[string]entity.MatchSummary, len(summaries))
	for i, summary := range summaries {
		listed[summary.ID] = summary

		if i > 0 {
			assert.False(t, summary.CreatedAt.Before(summaries[i-1].CreatedAt), "oldest first")
		}
	}

	started := listed[ids[0]]
	assert.Equal(t, entity.StatusActive, started.Status)
	assert.Equal(t, 1, started.Plies)
	assert.Equal(t, black.ID, started.Participant1)

	for _, id := range ids[1:] {
		assert.Equal(t, entity.StatusPending, listed[id].Status)
		assert.Zero(t, listed[id].Plies)
	}

	t.Run("a status keeps only matches in that status", func(t *testing.T) {
		active := h.registry.ListMatches(entity.StatusActive)
		require.Len(t, active, 1)
		assert.Equal(t, ids[0], active[0].ID)

		pending := h.registry.ListMatches(entity.StatusPending)
		require.Len(t, pending, 2)
		for _, summary := range pending {
			assert.Equal(t, entity.StatusPending, summary.Status)
		}
	})

	t.Run("a status nothing is in yields an empty list", func(t *testing.T) {
		assert.Empty(t, h.registry.ListMatches(entity.StatusCompleted))
	})
}

func TestMatchRegistry_RemoveMatch(t *testing.T) {
	t.Run("refuses a running match", func(t *testing.T) {
		// Given
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := newHarness(time.Second, true)
		black, white := humans()
		matchID, _ := startedMatch(t, ctx, h, black, white)

		// When
		err := h.registry.RemoveMatch(ctx, matchID)

		// Then
		assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)

		_, err = h.registry.GetState(matchID)
		assert.NoError(t, err, "the match must still be there")
	})

	t.Run("removes a finished match after export", func(t *testing.T) {
		// Given
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := newHarness(time.Second, true)
		black, white := humans()
		matchID, coordinator := startedMatch(t, ctx, h, black, white)

		_, err := h.registry.CancelMatch(ctx, matchID)
		require.NoError(t, err)
		waitDone(t, coordinator)

		// When
		err = h.registry.RemoveMatch(ctx, matchID)

		// Then
		require.NoError(t, err)

		_, err = h.registry.GetState(matchID)
		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)

		_, archived := h.archive.recordFor(matchID)
		assert.True(t, archived)
		_, recorded := h.ledger.outcomeFor(matchID)
		assert.True(t, recorded)
	})

	t.Run("keeps the match when the export fails, then retries", func(t *testing.T) {
		// Given
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		h := newHarness(time.Second, true)
		h.archive.setSaveErr(assert.AnError)

		black, white := humans()
		matchID, coordinator := startedMatch(t, ctx, h, black, white)

		_, err := h.registry.CancelMatch(ctx, matchID)
		require.NoError(t, err)
		waitDone(t, coordinator)

		// When
		err = h.registry.RemoveMatch(ctx, matchID)

		// Then
		require.ErrorIs(t, err, assert.AnError)
		_, err = h.registry.GetState(matchID)
		assert.NoError(t, err, "an unexported match must not be dropped")

		t.Run("a later removal succeeds once the archive recovers", func(t *testing.T) {
			h.archive.setSaveErr(nil)

			require.NoError(t, h.registry.RemoveMatch(ctx, matchID))

			_, archived := h.archive.recordFor(matchID)
			assert.True(t, archived)
			_, err = h.registry.GetState(matchID)
			assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
		})
	})
}

func TestMatchRegistry_ReplayMatch(t *testing.T) {
	// Given a short match with a capture, aborted after four plies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(time.Second, true)
	black, white := humans()
	matchID, coordinator := startedMatch(t, ctx, h, black, white)

	plies := []struct {
		participantID string
		move          entity.Move
	}{
		{black.ID, entity.Move{From: cell(4, 6), To: cell(4, 5), PieceType: entity.PieceSoldier}},
		{white.ID, entity.Move{From: cell(4, 2), To: cell(4, 3), PieceType: entity.PieceSoldier}},
		{black.ID, entity.Move{From: cell(4, 5), To: cell(4, 4), PieceType: entity.PieceSoldier}},
		{white.ID, entity.Move{From: cell(4, 3), To: cell(4, 4), PieceType: entity.PieceSoldier, IsCapture: true}},
	}
	for _, ply := range plies {
		_, err := h.registry.SubmitMove(ctx, matchID, ply.participantID, ply.move)
		require.NoError(t, err)
	}

	live, err := h.registry.CancelMatch(ctx, matchID)
	require.NoError(t, err)
	waitDone(t, coordinator)

	// When
	replayed, err := h.registry.ReplayMatch(ctx, matchID)

	// Then
	require.NoError(t, err)
	assert.Equal(t, live.Board, replayed.Board)
	assert.Equal(t, live.MoveHistory, replayed.MoveHistory)
	assert.Equal(t, live.Captured, replayed.Captured)
	assert.Equal(t, 4, replayed.Plies())

	// The journal holds only moves; the abort lives in the outcome row.
	assert.Equal(t, entity.StatusActive, replayed.Status)

	t.Run("an unknown match has no journal", func(t *testing.T) {
		_, err := h.registry.ReplayMatch(ctx, "missing")

		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("a journal with a gap is refused", func(t *testing.T) {
		first := entity.Move{From: cell(4, 6), To: cell(4, 5), PieceType: entity.PieceSoldier, MoveNumber: 1}
		third := entity.Move{From: cell(4, 5), To: cell(4, 4), PieceType: entity.PieceSoldier, MoveNumber: 3}
		require.NoError(t, h.ledger.AppendMove(ctx, "broken", entity.SideBlack, first))
		require.NoError(t, h.ledger.AppendMove(ctx, "broken", entity.SideBlack, third))

		_, err := h.registry.ReplayMatch(ctx, "broken")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not contiguous")
	})
}
