package circular

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/threadher/threadher/internal/apperr"
	"github.com/threadher/threadher/internal/envelope"
	"github.com/threadher/threadher/pkg/types"
)

// FailureMessage accompanies every failed response.
const FailureMessage = "Failed to get circular options"

// ParseRequest reads garment_type (default "default"), condition (default
// "unknown") and user_location (default BaselineRegion).
func ParseRequest(f envelope.Fields) Request {
	return Request{
		GarmentType:  f.String("garment_type", types.DefaultKey),
		Condition:    f.String("condition", "unknown"),
		UserLocation: f.String("user_location", BaselineRegion),
	}
}

// Handler is the get-circular-options entrypoint.
type Handler struct {
	rec *Recommender
}

// NewHandler wraps rec.
func NewHandler(rec *Recommender) *Handler {
	return &Handler{rec: rec}
}

// Handle processes one invocation. The returned error is always nil.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (resp envelope.Response, _ error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("circular: panic: %v", r)
			resp = envelope.Error(apperr.Unexpected("circular.handle", fmt.Errorf("%v", r)), FailureMessage)
		}
	}()

	body, err := envelope.DecodeBody(event)
	if err != nil {
		log.Printf("circular: %v", err)
		return envelope.Error(err, FailureMessage), nil
	}

	out := h.rec.Recommend(ctx, ParseRequest(body))
	return envelope.JSON(http.StatusOK, out.Recommendation), nil
}
