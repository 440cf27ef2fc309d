package entity

import "time"

// JournaledMove is one accepted move as it appears in the durable
// journal: the move, who played it, and when it was accepted.
type JournaledMove struct {
	Side     Side      `json:"side"`
	Move     Move      `json:"move"`
	PlayedAt time.Time `json:"played_at"`
}
