package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/testing/suite"
)

func TestParticipantRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	participantRepo := NewParticipantRepository(st.Storage)

	// Given: an agent participant with a play profile
	participant := entity.NewAgentParticipant("agent-123", entity.HardDifficulty, entity.AggressivePersonality)

	// When: CreateOrUpdate is called
	err := participantRepo.CreateOrUpdate(ctx, &participant)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestParticipantRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		participantRepo := NewParticipantRepository(st.Storage)

		// Given: a stored human participant
		participant := entity.NewHumanParticipant("user-123", "ProGamer")

		err := participantRepo.CreateOrUpdate(ctx, &participant)
		require.NoError(t, err)

		// When: GetByID is called with the existing ID
		retrieved, err := participantRepo.GetByID(ctx, participant.ID)

		// Then: the retrieved participant should match the saved one
		require.NoError(t, err)
		assert.Equal(t, &participant, retrieved)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		participantRepo := NewParticipantRepository(st.Storage)

		// When: GetByID is called with an unknown ID
		_, err := participantRepo.GetByID(ctx, "9999999")

		// Then: the participant not found error should be returned
		assert.ErrorIs(t, err, apperror.ErrParticipantNotFound)
	})
}

func TestParticipantRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	participantRepo := NewParticipantRepository(st.Storage)

	// Given: a stored participant
	participant := entity.NewHumanParticipant("user-123", "ProGamer")

	err := participantRepo.CreateOrUpdate(ctx, &participant)
	require.NoError(t, err)

	// When: DeleteByID is called
	err = participantRepo.DeleteByID(ctx, participant.ID)

	// Then: the participant should be gone
	require.NoError(t, err)

	_, err = participantRepo.GetByID(ctx, participant.ID)
	assert.ErrorIs(t, err, apperror.ErrParticipantNotFound)
}
