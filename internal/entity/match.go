package entity

import "time"

// Match binds two participants to one game. Participant1 always plays
// black and moves first; the pairing never changes after creation.
type Match struct {
	ID           string      `json:"id"`
	Participant1 Participant `json:"participant1"`
	Participant2 Participant `json:"participant2"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func NewMatch(id string, participant1, participant2 Participant) *Match {
	now := time.Now().UTC()

	return &Match{
		ID:           id,
		Participant1: participant1,
		Participant2: participant2,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ParticipantFor returns the participant bound to the given side.
func (that *Match) ParticipantFor(side Side) Participant {
	if side == SideBlack {
		return that.Participant1
	}
	return that.Participant2
}

// SideOf resolves which side a participant id plays, if any.
func (that *Match) SideOf(participantID string) (Side, bool) {
	switch participantID {
	case that.Participant1.ID:
		return SideBlack, true
	case that.Participant2.ID:
		return SideWhite, true
	default:
		return "", false
	}
}

// MatchSummary is the listing projection of a match; it carries no
// board data and is safe to hand out freely.
type MatchSummary struct {
	ID           string    `json:"id"`
	Participant1 string    `json:"participant1"`
	Participant2 string    `json:"participant2"`
	Status       string    `json:"status"`
	Winner       string    `json:"winner,omitempty"`
	Plies        int       `json:"plies"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MatchRecord is the durable export of a finished match: the pairing
// plus the final game state, exactly as archived.
type MatchRecord struct {
	Match      Match     `json:"match"`
	GameState  GameState `json:"game_state"`
	ArchivedAt time.Time `json:"archived_at"`
}
