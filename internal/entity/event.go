package entity

import "time"

const (
	EventMatchCreated   = "match.created"
	EventMatchStarted   = "match.started"
	EventMoveApplied    = "move.applied"
	EventMatchCompleted = "match.completed"
	EventMatchCancelled = "match.cancelled"
)

// MatchEvent is the notification published after every successful
// mutation. Delivery is fire-and-forget; consumers that need the full
// state fetch a snapshot instead.
type MatchEvent struct {
	Type       string    `json:"type"`
	MatchID    string    `json:"match_id"`
	Move       *Move     `json:"move,omitempty"`
	NextPlayer Side      `json:"next_player,omitempty"`
	Status     string    `json:"status,omitempty"`
	Winner     string    `json:"winner,omitempty"`
	EndReason  string    `json:"end_reason,omitempty"`
	Plies      int       `json:"plies,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
