// Package chat is the conversational front door: it forwards a user's
// question, and optionally a garment photo, to the agent and collects the reply.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/threadher/threadher/internal/apperr"
	"github.com/threadher/threadher/internal/storage"
)

// Prompt markers appended to the user's query.
const (
	imageUploadedFmt = "%s\n\n[IMAGE UPLOADED: s3://%s/%s]\nPlease analyze the garment in the uploaded image."
	imageFailedFmt   = "%s\n\n[Note: Image upload failed, proceeding with text-only analysis]"
)

// Request is one chat turn.
type Request struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	// Image is base64, optionally as a data URL.
	Image string `json:"image,omitempty"`
}

// Response is the agent's reply.
type Response struct {
	Response    string  `json:"response"`
	SessionID   string  `json:"session_id"`
	ImageStored *string `json:"image_stored"`
}

// Service relays chat turns to an agent.
type Service struct {
	agent  AgentInvoker
	blobs  storage.BlobStore
	bucket string
	now    func() time.Time
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithUploads stores attached images in bucket.
func WithUploads(blobs storage.BlobStore, bucket string) Option {
	return func(s *Service) {
		s.blobs = blobs
		s.bucket = bucket
	}
}

// WithClock overrides the time source used for upload keys.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how session IDs are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService returns a Service talking to agent.
func NewService(agent AgentInvoker, opts ...Option) *Service {
	s := &Service{agent: agent, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask sends req to the agent and returns the complete reply.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	return s.Stream(ctx, req, nil)
}

// Stream is Ask with each reply chunk also passed to onChunk as it arrives.
// An error from onChunk aborts the turn.
func (s *Service) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Response{}, apperr.Validation("chat.ask", "No query provided")
	}
	if s.agent == nil {
		return Response{}, apperr.Unexpected("chat.ask", errors.New("no agent configured"))
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.newID()
	}

	input := req.Query
	var stored *string
	if req.Image != "" {
		key, err := s.upload(ctx, sessionID, req.Image)
		if err != nil {
			log.Printf("chat: image upload error: %v", err)
			input = fmt.Sprintf(imageFailedFmt, req.Query)
		} else {
			log.Printf("chat: image uploaded to s3://%s/%s", s.bucket, key)
			input = fmt.Sprintf(imageUploadedFmt, req.Query, s.bucket, key)
			stored = &key
		}
	}

	log.Printf("chat: invoking agent with query: %s", truncate(input, 200))
	var reply strings.Builder
	err := s.agent.InvokeAgent(ctx, sessionID, input, func(b []byte) error {
		reply.Write(b)
		if onChunk != nil {
			return onChunk(string(b))
		}
		return nil
	})
	if err != nil {
		return Response{}, apperr.Unexpected("chat.ask", err)
	}
	log.Printf("chat: agent response: %s", truncate(reply.String(), 200))

	return Response{Response: reply.String(), SessionID: sessionID, ImageStored: stored}, nil
}

// upload decodes image and stores it under uploads/<session>/<timestamp>.jpg.
func (s *Service) upload(ctx context.Context, sessionID, image string) (string, error) {
	if s.blobs == nil || s.bucket == "" {
		return "", errors.New("no upload bucket configured")
	}
	data, err := DecodeImage(image)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("uploads/%s/%s.jpg", sessionID, s.now().Format("20060102-150405"))
	if err := s.blobs.Put(ctx, s.bucket, key, data, "image/jpeg"); err != nil {
		return "", err
	}
	return key, nil
}

// DecodeImage decodes raw base64 or a data URL ("data:image/jpeg;base64,...").
func DecodeImage(image string) ([]byte, error) {
	if _, after, ok := strings.Cut(image, ","); ok {
		image = after
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(image))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("decode image: empty image")
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
