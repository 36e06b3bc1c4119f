package host

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
)

const shutdownTimeout = 5 * time.Second

// ServeStdio speaks MCP over r and w until ctx is done or r closes.
func ServeStdio(ctx context.Context, s *server.MCPServer, r io.Reader, w io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(slogWriter{}, "", 0))
	err := stdio.Listen(ctx, r, w)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Router mounts the streamable MCP endpoint at /mcp next to a health probe.
func Router(s *server.MCPServer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	r.Handle("/mcp", server.NewStreamableHTTPServer(s))
	return r
}

// ServeHTTP listens on addr until ctx is done, then shuts down.
func ServeHTTP(ctx context.Context, s *server.MCPServer, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Tool host listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// slogWriter forwards the stdio server's log lines to slog.
type slogWriter struct{}

func (slogWriter) Write(p []byte) (int, error) {
	slog.Warn("MCP stdio", "msg", string(p))
	return len(p), nil
}
