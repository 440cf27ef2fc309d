package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentarena/gungi-backend/internal/entity"
)

func (that *Server) handleSubscribe(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleSubscribe")

	var payload Payload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.MatchID == "" {
		return that.sendErrorResponse(conn, msg.Action, "match_id is required")
	}

	state, err := that.registry.GetState(payload.MatchID)
	if err != nil {
		log.Warn("failed to get match state", "matchID", payload.MatchID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	events, cancel := that.events.Subscribe(payload.MatchID)
	conn.addCancel(cancel)

	// The snapshot goes out before any event, so the client never sees
	// an event it cannot apply.
	if err = that.sendMessage(conn, "match:state", Payload{MatchID: payload.MatchID, State: state}); err != nil {
		cancel()
		return fmt.Errorf("failed to send snapshot: %w", err)
	}

	go that.streamEvents(ctx, conn, payload.MatchID, events)

	log.Info("client subscribed", "matchID", payload.MatchID)

	return nil
}

// streamEvents forwards match events to the client until the
// subscription is canceled or the context ends.
func (that *Server) streamEvents(ctx context.Context, conn *connection, matchID string, events <-chan entity.MatchEvent) {
	log := that.logger.With("method", "streamEvents", "matchID", matchID)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			if err := that.sendMessage(conn, "match:event", Payload{MatchID: matchID, Event: &event}); err != nil {
				log.Warn("failed to forward event, dropping subscriber", "error", err)
				return
			}
		}
	}
}

func (that *Server) handleState(_ context.Context, msg *Message, conn *connection) error {
	var payload Payload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.MatchID == "" {
		return that.sendErrorResponse(conn, msg.Action, "match_id is required")
	}

	state, err := that.registry.GetState(payload.MatchID)
	if err != nil {
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{MatchID: payload.MatchID, State: state})
}

func (that *Server) handleMove(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleMove")

	var payload Payload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.MatchID == "" || payload.ParticipantID == "" || payload.Move == nil {
		return that.sendErrorResponse(conn, msg.Action, "match_id, participant_id and move are required")
	}

	state, err := that.registry.SubmitMove(ctx, payload.MatchID, payload.ParticipantID, *payload.Move)
	if err != nil {
		log.Warn("move rejected", "matchID", payload.MatchID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{MatchID: payload.MatchID, State: state})
}

func (that *Server) handleSurrender(ctx context.Context, msg *Message, conn *connection) error {
	log := that.logger.With("method", "handleSurrender")

	var payload Payload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.MatchID == "" || payload.ParticipantID == "" {
		return that.sendErrorResponse(conn, msg.Action, "match_id and participant_id are required")
	}

	state, err := that.registry.SurrenderMatch(ctx, payload.MatchID, payload.ParticipantID)
	if err != nil {
		log.Warn("surrender rejected", "matchID", payload.MatchID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, err.Error())
	}

	return that.sendMessage(conn, msg.Action, Payload{MatchID: payload.MatchID, State: state})
}
