// Package server exposes the tool functions, the agent action endpoint and
// the chat front door over HTTP for local development.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/threadher/threadher/internal/action"
	"github.com/threadher/threadher/internal/chat"
	"github.com/threadher/threadher/internal/config"
	"github.com/threadher/threadher/internal/envelope"
)

// maxBodyBytes bounds request bodies; uploaded images arrive base64-encoded.
const maxBodyBytes = 20 << 20

// Handlers are the components served over HTTP. Tools is keyed by action
// path ("/calculate-carbon"); nil components are not routed.
type Handlers struct {
	Actions *action.Handler
	Tools   map[string]action.FunctionHandler
	Chat    *chat.Service
}

// New builds the HTTP handler.
func New(cfg *config.Config, h Handlers) http.Handler {
	mux := http.NewServeMux()
	auth := func(next http.Handler) http.Handler { return RequireAuth(next, cfg) }

	// Health endpoint, no auth required
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	if h.Actions != nil {
		mux.Handle("POST /actions", auth(actionsHandler(h.Actions)))
	}
	for path, fn := range h.Tools {
		mux.Handle("POST /tools"+path, auth(toolHandler(fn)))
	}
	if h.Chat != nil {
		chatHTTP := chat.NewHandler(h.Chat)
		mux.Handle("POST /api/chat", auth(chatHandler(chatHTTP)))
		mux.HandleFunc("OPTIONS /api/chat", func(w http.ResponseWriter, _ *http.Request) {
			setHeaders(w, chat.CORSHeaders)
			w.WriteHeader(http.StatusOK)
		})
		mux.Handle("GET /api/chat/stream", auth(newStreamHandler(h.Chat, cfg)))
	}

	var handler http.Handler = mux
	handler = RateLimitMiddleware(handler, NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst))
	return securityHeadersMiddleware(handler)
}

// Start listens on the configured address and serves until ctx is done.
// Returns the actual address being listened on (useful for testing with port 0).
func Start(ctx context.Context, cfg *config.Config, h Handlers) (string, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      New(cfg, h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: error: %v", err)
		}
	}()

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
	}()

	return listener.Addr().String(), nil
}

func actionsHandler(h *action.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev action.Event
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&ev); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid agent event: "+err.Error(), "BAD_REQUEST")
			return
		}
		resp, _ := h.Handle(r.Context(), ev)
		writeJSON(w, http.StatusOK, resp)
	}
}

// toolHandler passes the raw body to fn as a direct invocation payload and
// replays the envelope's status, headers and body.
func toolHandler(fn action.FunctionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeJSONError(w, http.StatusRequestEntityTooLarge, err.Error(), "BODY_TOO_LARGE")
			return
		}
		resp, err := fn(r.Context(), json.RawMessage(body))
		if err != nil {
			resp = envelope.Error(err, "tool invocation failed")
		}
		setHeaders(w, resp.Headers)
		w.WriteHeader(resp.StatusCode)
		_, _ = io.WriteString(w, resp.Body)
	}
}

func chatHandler(h *chat.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chat.Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
			setHeaders(w, chat.CORSHeaders)
			writeJSON(w, http.StatusBadRequest, chat.ErrorBody{Error: "invalid request body: " + err.Error()})
			return
		}
		status, body := h.Serve(r.Context(), req)
		setHeaders(w, chat.CORSHeaders)
		writeJSON(w, status, body)
	}
}

func setHeaders(w http.ResponseWriter, headers map[string]string) {
	for k, v := range headers {
		w.Header().Set(k, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSONBody(w, v)
}

func writeJSONBody(w io.Writer, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: failed to encode response: %v", err)
	}
}
