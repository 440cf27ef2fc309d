package service

import (
	"log/slog"
	"sync"

	"github.com/agentarena/gungi-backend/internal/entity"
)

// subscriberBufferSize bounds how far a consumer may lag before events
// are dropped for it.
const subscriberBufferSize = 16

// Broadcaster fans match events out to everyone watching a match.
// Publishing never blocks: a subscriber whose buffer is full misses
// the event and is expected to resynchronize from a snapshot.
type Broadcaster interface {
	Subscribe(matchID string) (<-chan entity.MatchEvent, func())
	Publish(event entity.MatchEvent)
}

type broadcaster struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[int]chan entity.MatchEvent
	nextID      int
}

func NewBroadcaster(logger *slog.Logger) Broadcaster {
	return &broadcaster{
		logger:      logger.With("component", "broadcaster"),
		subscribers: make(map[string]map[int]chan entity.MatchEvent),
	}
}

func (that *broadcaster) Subscribe(matchID string) (<-chan entity.MatchEvent, func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	events := make(chan entity.MatchEvent, subscriberBufferSize)

	id := that.nextID
	that.nextID++

	if that.subscribers[matchID] == nil {
		that.subscribers[matchID] = make(map[int]chan entity.MatchEvent)
	}
	that.subscribers[matchID][id] = events

	cancel := func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		if _, ok := that.subscribers[matchID][id]; !ok {
			return
		}

		delete(that.subscribers[matchID], id)
		if len(that.subscribers[matchID]) == 0 {
			delete(that.subscribers, matchID)
		}
		close(events)
	}

	return events, cancel
}

func (that *broadcaster) Publish(event entity.MatchEvent) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for id, events := range that.subscribers[event.MatchID] {
		select {
		case events <- event:
		default:
			that.logger.Warn("dropping event for slow subscriber",
				"matchID", event.MatchID,
				"subscriber", id,
				"event", event.Type,
			)
		}
	}
}
