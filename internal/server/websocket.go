package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"nhooyr.io/websocket"        //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	"nhooyr.io/websocket/wsjson" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/threadher/threadher/internal/apperr"
	"github.com/threadher/threadher/internal/chat"
	"github.com/threadher/threadher/internal/config"
)

// turnTimeout bounds one agent turn on the stream.
const turnTimeout = 2 * time.Minute

// StreamMessage is sent to the client: "chunk" events while the agent
// answers, then one "done" or "error".
type StreamMessage struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Image     string `json:"image_stored,omitempty"`
	Error     string `json:"error,omitempty"`
}

// streamHandler relays chat turns over a websocket. Each client message is
// a chat.Request; turns run one at a time per connection.
type streamHandler struct {
	svc     *chat.Service
	origins []string
}

func newStreamHandler(svc *chat.Service, cfg *config.Config) *streamHandler {
	return &streamHandler{
		svc: svc,
		origins: []string{
			fmt.Sprintf("localhost:%d", cfg.Server.Port),
			fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
		},
	}
}

func (h *streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{ //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		OriginPatterns: h.origins,
	})
	if err != nil {
		log.Printf("server: websocket upgrade failed: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	for {
		var req chat.Request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure && !errors.Is(err, context.Canceled) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}
		if err := h.turn(ctx, conn, req); err != nil {
			log.Printf("server: websocket write: %v", err)
			return
		}
	}
}

// turn runs one chat turn. It returns an error only when the connection
// can no longer be written to.
func (h *streamHandler) turn(ctx context.Context, conn *websocket.Conn, req chat.Request) error {
	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	var writeErr error
	resp, err := h.svc.Stream(ctx, req, func(text string) error {
		writeErr = wsjson.Write(ctx, conn, StreamMessage{Type: "chunk", Text: text})
		return writeErr
	})
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		msg := err.Error()
		if apperr.KindOf(err) != apperr.KindValidation {
			log.Printf("server: chat stream: %v", err)
		}
		return wsjson.Write(ctx, conn, StreamMessage{Type: "error", Error: msg, SessionID: req.SessionID})
	}

	done := StreamMessage{Type: "done", Text: resp.Response, SessionID: resp.SessionID}
	if resp.ImageStored != nil {
		done.Image = *resp.ImageStored
	}
	return wsjson.Write(ctx, conn, done)
}
