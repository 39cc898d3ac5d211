package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/threadher/threadher/internal/apperr"
	"github.com/threadher/threadher/internal/envelope"
)

// FailureMessage accompanies every failed response.
const FailureMessage = "Failed to analyze garment"

// Result is the success body.
type Result struct {
	GarmentID string   `json:"garment_id"`
	Analysis  Analysis `json:"analysis"`
}

// ParseRequest reads image_s3_key, bucket_name and user_id from a request body.
func ParseRequest(f envelope.Fields) Request {
	return Request{
		ImageKey: f.String("image_s3_key", ""),
		Bucket:   f.String("bucket_name", ""),
		UserID:   f.String("user_id", AnonymousUser),
	}
}

// Handler is the analyze-garment entrypoint.
type Handler struct {
	analyzer *Analyzer
}

// NewHandler wraps analyzer.
func NewHandler(analyzer *Analyzer) *Handler {
	return &Handler{analyzer: analyzer}
}

// Handle processes one invocation: 400 when the image is not identified,
// 404 when it cannot be fetched, 500 on anything unexpected.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (resp envelope.Response, _ error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("vision: panic: %v", r)
			resp = envelope.Error(apperr.Unexpected("vision.handle", fmt.Errorf("%v", r)), FailureMessage)
		}
	}()

	body, err := envelope.DecodeBody(event)
	if err != nil {
		log.Printf("vision: %v", err)
		return envelope.Error(err, FailureMessage), nil
	}

	analysis, err := h.analyzer.Analyze(ctx, ParseRequest(body))
	if err != nil {
		log.Printf("vision: %v", err)
		return envelope.Error(err, FailureMessage), nil
	}
	return envelope.JSON(http.StatusOK, Result{GarmentID: analysis.GarmentID, Analysis: analysis}), nil
}
