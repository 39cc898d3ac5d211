package carbon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/threadher/threadher/internal/apperr"
	"github.com/threadher/threadher/internal/envelope"
	"github.com/threadher/threadher/pkg/types"
)

// FailureMessage accompanies every failed response.
const FailureMessage = "Failed to calculate carbon footprint"

// ParseRequest builds a descriptor from a request body. Missing fields
// take defaults: garment type and material "default", origin "unknown",
// age 0. Unrecognized fields are ignored.
func ParseRequest(f envelope.Fields) types.GarmentDescriptor {
	d := types.GarmentDescriptor{
		GarmentType:       f.String("garment_type", types.DefaultKey),
		Material:          f.String("material", types.DefaultKey),
		OriginLocation:    f.String("origin", "unknown"),
		EstimatedAgeYears: f.Float("estimated_age_years"),
	}
	if _, ok := f["garment_type"]; !ok {
		log.Printf("carbon: warning: no garment_type provided, using %q", types.DefaultKey)
	}
	if _, ok := f["material"]; !ok {
		log.Printf("carbon: warning: no material provided, using %q", types.DefaultKey)
	}
	return d
}

// Handler is the calculate-carbon entrypoint. It accepts {body: ...} or a
// bare payload and always answers with an envelope.Response.
type Handler struct {
	est *Estimator
}

// NewHandler wraps est.
func NewHandler(est *Estimator) *Handler {
	return &Handler{est: est}
}

// Handle processes one invocation. The returned error is always nil; every
// failure is encoded in the response.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (resp envelope.Response, _ error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("carbon: panic: %v", r)
			resp = envelope.Error(apperr.Unexpected("carbon.handle", fmt.Errorf("%v", r)), FailureMessage)
		}
	}()

	body, err := envelope.DecodeBody(event)
	if err != nil {
		log.Printf("carbon: %v", err)
		return envelope.Error(err, FailureMessage), nil
	}

	out := h.est.Calculate(ctx, ParseRequest(body), requestID(ctx))
	return envelope.JSON(http.StatusOK, out.Report), nil
}

// requestID returns the Lambda request ID when running under Lambda.
func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}
