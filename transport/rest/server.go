package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

// NewRouter wires every API route to its handler.
func NewRouter(handlers Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", handlers.Ping)

	mux.HandleFunc("POST /matches", handlers.CreateMatch)
	mux.HandleFunc("GET /matches", handlers.ListMatches)
	mux.HandleFunc("GET /matches/{id}", handlers.GetMatch)
	mux.HandleFunc("DELETE /matches/{id}", handlers.RemoveMatch)

	mux.HandleFunc("POST /matches/{id}/start", handlers.StartMatch)
	mux.HandleFunc("POST /matches/{id}/moves", handlers.SubmitMove)
	mux.HandleFunc("GET /matches/{id}/moves", handlers.LegalMoves)
	mux.HandleFunc("POST /matches/{id}/surrender", handlers.Surrender)
	mux.HandleFunc("POST /matches/{id}/cancel", handlers.CancelMatch)
	mux.HandleFunc("GET /matches/{id}/replay", handlers.ReplayMatch)

	mux.HandleFunc("DELETE /participants/{id}", handlers.RemoveParticipant)

	mux.HandleFunc("GET /archive", handlers.ListArchive)
	mux.HandleFunc("GET /archive/{id}", handlers.GetArchived)

	return mux
}

// Start runs the HTTP API until the context is canceled, then shuts
// the server down gracefully.
func Start(ctx context.Context, port string, handlers Handlers) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(handlers),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
