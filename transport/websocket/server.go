package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/agentarena/gungi-backend/internal/entity"
	"github.com/agentarena/gungi-backend/internal/pkg"
)

type matchRegistry interface {
	GetState(matchID string) (*entity.GameState, error)
	SubmitMove(ctx context.Context, matchID, participantID string, move entity.Move) (*entity.GameState, error)
	SurrenderMatch(ctx context.Context, matchID, participantID string) (*entity.GameState, error)
}

type broadcaster interface {
	Subscribe(matchID string) (<-chan entity.MatchEvent, func())
}

// connection is one upgraded client. Frames from the event stream and
// from request replies interleave on the same socket, so every write
// goes through the connection's lock.
type connection struct {
	mu    sync.Mutex
	bufrw *bufio.ReadWriter

	cancelsMu sync.Mutex
	cancels   []func()
}

func (that *connection) addCancel(cancel func()) {
	that.cancelsMu.Lock()
	defer that.cancelsMu.Unlock()

	that.cancels = append(that.cancels, cancel)
}

func (that *connection) close() {
	that.cancelsMu.Lock()
	defer that.cancelsMu.Unlock()

	for _, cancel := range that.cancels {
		cancel()
	}
	that.cancels = nil
}

// Server streams match events to subscribed clients and accepts moves
// over the same socket.
type Server struct {
	logger *slog.Logger

	registry matchRegistry
	events   broadcaster

	handlers map[string]func(ctx context.Context, message *Message, conn *connection) error
}

func New(logger *slog.Logger, registry matchRegistry, events broadcaster) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),

		registry: registry,
		events:   events,

		handlers: make(map[string]func(context.Context, *Message, *connection) error),
	}

	server.handlers["match:subscribe"] = server.handleSubscribe
	server.handlers["match:state"] = server.handleState
	server.handlers["match:move"] = server.handleMove
	server.handlers["match:surrender"] = server.handleSurrender

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	that.setSessionCookie(writer, req)

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		return
	}

	netConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer netConn.Close()

	conn := &connection{bufrw: bufrw}
	defer conn.close()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, conn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until it leaves.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		reqBody, err := that.readRequest(conn.bufrw)
		if errors.Is(err, errConnectionClosed) {
			log.Info("client closed connection")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)

			if err = that.sendErrorResponse(conn, message.Action, "unknown action"); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// setSessionCookie - set user session.
func (that *Server) setSessionCookie(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "setSessionCookie")

	cookie, err := req.Cookie("user_session")
	if err != nil {
		cookie = &http.Cookie{
			Name:    "user_session",
			Value:   pkg.GenerateNewSessionID(),
			Expires: time.Now().Add(24 * time.Hour),
			Path:    "/ws",
		}
		http.SetCookie(writer, cookie)
		log.Info("session cookie not found, new one created", "cookie", cookie.Value)
		return
	}

	log.Debug("session cookie found", "cookie", cookie.Value)
}
