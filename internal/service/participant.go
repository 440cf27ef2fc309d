package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/internal/pkg"
)

var (
	ErrUnknownDifficulty  = errors.New("unknown agent difficulty")
	ErrUnknownPersonality = errors.New("unknown agent personality")
)

type ParticipantService interface {
	CreateHuman(ctx context.Context, name string) (*entity.Participant, error)
	CreateAgent(ctx context.Context, difficulty, personality string) (*entity.Participant, error)
	CreateOrUpdate(ctx context.Context, participant *entity.Participant) error
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
	DeleteByID(ctx context.Context, id string) error
}

type participantService struct {
	participantRepo participantRepo
}

type participantRepo interface {
	CreateOrUpdate(ctx context.Context, participant *entity.Participant) error
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
	DeleteByID(ctx context.Context, id string) error
}

func NewParticipantService(participantRepo participantRepo) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
	}
}

func (that *participantService) CreateHuman(ctx context.Context, name string) (*entity.Participant, error) {
	participant := entity.NewHumanParticipant(pkg.GenerateParticipantID(), name)

	if err := that.participantRepo.CreateOrUpdate(ctx, &participant); err != nil {
		return nil, fmt.Errorf("failed to create human participant: %w", err)
	}

	return &participant, nil
}

func (that *participantService) CreateAgent(ctx context.Context, difficulty, personality string) (*entity.Participant, error) {
	switch difficulty {
	case "", entity.EasyDifficulty, entity.MediumDifficulty, entity.HardDifficulty:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDifficulty, difficulty)
	}

	switch personality {
	case "", entity.AggressivePersonality, entity.DefensivePersonality, entity.BalancedPersonality:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPersonality, personality)
	}

	participant := entity.NewAgentParticipant(pkg.GenerateParticipantID(), difficulty, personality)

	if err := that.participantRepo.CreateOrUpdate(ctx, &participant); err != nil {
		return nil, fmt.Errorf("failed to create agent participant: %w", err)
	}

	return &participant, nil
}

func (that *participantService) CreateOrUpdate(ctx context.Context, participant *entity.Participant) error {
	if err := that.participantRepo.CreateOrUpdate(ctx, participant); err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}

	return nil
}

func (that *participantService) GetByID(ctx context.Context, id string) (*entity.Participant, error) {
	existingParticipant, err := that.participantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant by id: %w", err)
	}

	return existingParticipant, nil
}

// DeleteByID removes a participant's profile from the directory. A
// participant already paired into a live match keeps playing; only the
// stored profile goes away.
func (that *participantService) DeleteByID(ctx context.Context, id string) error {
	if _, err := that.participantRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("failed to resolve participant for deletion: %w", err)
	}

	if err := that.participantRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}

	return nil
}
