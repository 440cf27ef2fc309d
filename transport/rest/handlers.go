package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agentarena/gungi-backend/internal/apperror"
	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/internal/service"
)

var errEmptyParticipantID = errors.New("participant_id is required")

type Handlers interface {
	Ping(w http.ResponseWriter, _ *http.Request)

	CreateMatch(w http.ResponseWriter, r *http.Request)
	ListMatches(w http.ResponseWriter, r *http.Request)
	GetMatch(w http.ResponseWriter, r *http.Request)
	RemoveMatch(w http.ResponseWriter, r *http.Request)

	StartMatch(w http.ResponseWriter, r *http.Request)
	SubmitMove(w http.ResponseWriter, r *http.Request)
	LegalMoves(w http.ResponseWriter, r *http.Request)
	Surrender(w http.ResponseWriter, r *http.Request)
	CancelMatch(w http.ResponseWriter, r *http.Request)
	ReplayMatch(w http.ResponseWriter, r *http.Request)

	RemoveParticipant(w http.ResponseWriter, r *http.Request)

	ListArchive(w http.ResponseWriter, r *http.Request)
	GetArchived(w http.ResponseWriter, r *http.Request)
}

type matchRegistry interface {
	CreateMatch(ctx context.Context, participant1, participant2 entity.Participant) (*entity.Match, error)
	StartMatch(ctx context.Context, matchID string) (*entity.GameState, error)
	GetPairing(matchID string) (*entity.Match, error)
	GetState(matchID string) (*entity.GameState, error)
	ListMatches(status string) []entity.MatchSummary
	RemoveMatch(ctx context.Context, matchID string) error

	SubmitMove(ctx context.Context, matchID, participantID string, move entity.Move) (*entity.GameState, error)
	LegalMoves(matchID, participantID string) ([]entity.Move, error)
	SurrenderMatch(ctx context.Context, matchID, participantID string) (*entity.GameState, error)
	CancelMatch(ctx context.Context, matchID string) (*entity.GameState, error)
	ReplayMatch(ctx context.Context, matchID string) (*entity.GameState, error)
}

type participantService interface {
	CreateHuman(ctx context.Context, name string) (*entity.Participant, error)
	CreateAgent(ctx context.Context, difficulty, personality string) (*entity.Participant, error)
	GetByID(ctx context.Context, id string) (*entity.Participant, error)
	DeleteByID(ctx context.Context, id string) error
}

type matchArchive interface {
	GetByID(ctx context.Context, matchID string) (*entity.MatchRecord, error)
	List(ctx context.Context) ([]*entity.MatchRecord, error)
}

type handlers struct {
	logger *slog.Logger

	registry     matchRegistry
	participants participantService
	archive      matchArchive
}

func NewHandlers(logger *slog.Logger, registry matchRegistry, participants participantService, archive matchArchive) Handlers {
	return &handlers{
		logger: logger.With("component", "rest"),

		registry:     registry,
		participants: participants,
		archive:      archive,
	}
}

// participantPayload describes one side of a new match: either the id
// of an existing participant, or an inline definition to create one.
type participantPayload struct {
	ID          string `json:"id,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Name        string `json:"name,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Personality string `json:"personality,omitempty"`
}

type createMatchRequest struct {
	Participant1 *participantPayload `json:"participant1"`
	Participant2 *participantPayload `json:"participant2"`
	Start        bool                `json:"start,omitempty"`
}

type matchResponse struct {
	Match *entity.Match     `json:"match"`
	State *entity.GameState `json:"state,omitempty"`
}

type movePayload struct {
	ParticipantID string      `json:"participant_id"`
	Move          entity.Move `json:"move"`
}

type participantIDPayload struct {
	ParticipantID string `json:"participant_id"`
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := that.logger.With("method", "CreateMatch")

	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Participant1 == nil || req.Participant2 == nil {
		that.respondError(w, http.StatusBadRequest, "participant1 and participant2 are required")
		return
	}

	participant1, err := that.resolveParticipant(ctx, req.Participant1)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	participant2, err := that.resolveParticipant(ctx, req.Participant2)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	match, err := that.registry.CreateMatch(ctx, *participant1, *participant2)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	response := matchResponse{Match: match}

	if req.Start {
		state, startErr := that.registry.StartMatch(ctx, match.ID)
		if startErr != nil {
			that.respondFailure(w, log, startErr)
			return
		}

		match.Status = state.Status
		response.State = state
	}

	that.respondJSON(w, http.StatusCreated, response)
}

// resolveParticipant looks up an existing participant by id or creates
// a new one from an inline definition.
func (that *handlers) resolveParticipant(ctx context.Context, payload *participantPayload) (*entity.Participant, error) {
	if payload.ID != "" {
		participant, err := that.participants.GetByID(ctx, payload.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve participant: %w", err)
		}

		return participant, nil
	}

	if payload.Kind == entity.AgentParticipant {
		participant, err := that.participants.CreateAgent(ctx, payload.Difficulty, payload.Personality)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}

		return participant, nil
	}

	participant, err := that.participants.CreateHuman(ctx, payload.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	return participant, nil
}

func (that *handlers) ListMatches(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	switch status {
	case "", entity.StatusPending, entity.StatusActive, entity.StatusCompleted, entity.StatusCancelled:
	default:
		that.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
		return
	}

	summaries := that.registry.ListMatches(status)

	that.respondJSON(w, http.StatusOK, map[string][]entity.MatchSummary{"matches": summaries})
}

func (that *handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetMatch")

	matchID := r.PathValue("id")

	match, err := that.registry.GetPairing(matchID)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	state, err := that.registry.GetState(matchID)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	that.respondJSON(w, http.StatusOK, matchResponse{Match: match, State: state})
}

func (that *handlers) RemoveMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "RemoveMatch")

	if err := that.registry.RemoveMatch(r.Context(), r.PathValue("id")); err != nil {
		that.respondFailure(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) StartMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "StartMatch")

	state, err := that.registry.StartMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	that.respondJSON(w, http.StatusOK, state)
}

func (that *handlers) SubmitMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "SubmitMove")

	var payload movePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		that.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ParticipantID == "" {
		that.respondError(w, http.StatusBadRequest, errEmptyParticipantID.Error())
		return
	}

	state, err := that.registry.SubmitMove(r.Context(), r.PathValue("id"), payload.ParticipantID, payload.Move)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	that.respondJSON(w, http.StatusOK, state)
}

func (that *handlers) LegalMoves(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "LegalMoves")

	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		that.respondError(w, http.StatusBadRequest, errEmptyParticipantID.Error())
		return
	}

	moves, err := that.registry.LegalMoves(r.PathValue("id"), participantID)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	if moves == nil {
		moves = []entity.Move{}
	}

	that.respondJSON(w, http.StatusOK, map[string][]entity.Move{"moves": moves})
}

func (that *handlers) Surrender(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Surrender")

	var payload participantIDPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		that.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ParticipantID == "" {
		that.respondError(w, http.StatusBadRequest, errEmptyParticipantID.Error())
		return
	}

	state, err := that.registry.SurrenderMatch(r.Context(), r.PathValue("id"), payload.ParticipantID)
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	that.respondJSON(w, http.StatusOK, state)
}

func (that *handlers) CancelMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CancelMatch")

	state, err := that.registry.CancelMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	that.respondJSON(w, http.StatusOK, state)
}

func (that *handlers) ReplayMatch(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ReplayMatch")

	state, err := that.registry.ReplayMatch(r.Context(), r.PathValue("id"))
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	that.respondJSON(w, http.StatusOK, state)
}

func (that *handlers) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "RemoveParticipant")

	if err := that.participants.DeleteByID(r.Context(), r.PathValue("id")); err != nil {
		that.respondFailure(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) ListArchive(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ListArchive")

	records, err := that.archive.List(r.Context())
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	if records == nil {
		records = []*entity.MatchRecord{}
	}

	that.respondJSON(w, http.StatusOK, map[string][]*entity.MatchRecord{"records": records})
}

func (that *handlers) GetArchived(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetArchived")

	record, err := that.archive.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		that.respondFailure(w, log, err)
		return
	}

	that.respondJSON(w, http.StatusOK, record)
}

func (that *handlers) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *handlers) respondError(w http.ResponseWriter, status int, message string) {
	that.respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps domain errors onto stable HTTP statuses, so the
// same failure always produces the same code.
func (that *handlers) respondFailure(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	}

	that.respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrMatchNotFound),
		errors.Is(err, apperror.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrIllegalMove):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrOutOfTurn),
		errors.Is(err, apperror.ErrInvalidStateTransition),
		errors.Is(err, apperror.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrAgentTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrUnknownDifficulty),
		errors.Is(err, service.ErrUnknownPersonality):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
