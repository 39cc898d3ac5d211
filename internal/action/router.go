package action

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/threadher/threadher/internal/apperr"
	"github.com/threadher/threadher/internal/circular"
	"github.com/threadher/threadher/internal/envelope"
)

// Action paths, matched exactly.
const (
	PathAnalyzeGarment     = "/analyze-garment"
	PathCalculateCarbon    = "/calculate-carbon"
	PathGetCircularOptions = "/get-circular-options"
)

// Default function names of the remote tools.
const (
	DefaultAnalyzerFunction = "ThreadHer-ImageAnalyzer"
	DefaultCarbonFunction   = "ThreadHer-CarbonCalculator"
)

// Router dispatches an action path to the matching tool.
type Router struct {
	invoker          Invoker
	analyzerFunction string
	carbonFunction   string
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithAnalyzerFunction overrides the image analyzer's function name.
func WithAnalyzerFunction(name string) RouterOption {
	return func(r *Router) {
		if name != "" {
			r.analyzerFunction = name
		}
	}
}

// WithCarbonFunction overrides the carbon calculator's function name.
func WithCarbonFunction(name string) RouterOption {
	return func(r *Router) {
		if name != "" {
			r.carbonFunction = name
		}
	}
}

// NewRouter returns a Router calling remote tools through invoker.
func NewRouter(invoker Invoker, opts ...RouterOption) *Router {
	r := &Router{
		invoker:          invoker,
		analyzerFunction: DefaultAnalyzerFunction,
		carbonFunction:   DefaultCarbonFunction,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route runs the action at path. Failures come back as *apperr.Error:
// KindValidation for an unknown path and KindUpstream when a tool call
// fails. Remote results are returned as json.RawMessage.
func (r *Router) Route(ctx context.Context, path string, params ParameterSet) (any, error) {
	switch path {
	case PathAnalyzeGarment:
		return r.analyzeGarment(ctx, params)
	case PathCalculateCarbon:
		return r.calculateCarbon(ctx, params)
	case PathGetCircularOptions:
		return getCircularOptions(params), nil
	default:
		return nil, apperr.Validation("action.route", fmt.Sprintf("Unknown action: %s", path))
	}
}

func (r *Router) analyzeGarment(ctx context.Context, params ParameterSet) (any, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, apperr.Unexpected("action.analyze", err)
	}
	return r.call(ctx, r.analyzerFunction, payload, "Image analysis failed")
}

func (r *Router) calculateCarbon(ctx context.Context, params ParameterSet) (any, error) {
	inner, err := json.Marshal(params)
	if err != nil {
		return nil, apperr.Unexpected("action.carbon", err)
	}
	payload, err := json.Marshal(map[string]string{"body": string(inner)})
	if err != nil {
		return nil, apperr.Unexpected("action.carbon", err)
	}
	return r.call(ctx, r.carbonFunction, payload, "Carbon calculation failed")
}

// call invokes function and unwraps a 200 response body. Transport errors
// keep their own message; a non-200 response becomes failMsg.
func (r *Router) call(ctx context.Context, function string, payload []byte, failMsg string) (any, error) {
	op := "action.invoke:" + function
	log.Printf("actions: calling %s with params: %s", function, payload)

	if r.invoker == nil {
		return nil, apperr.Upstream(op, "", fmt.Errorf("no invoker configured for %s", function))
	}

	raw, err := r.invoker.Invoke(ctx, function, payload)
	if err != nil {
		log.Printf("actions: error calling %s: %v", function, err)
		return nil, apperr.Upstream(op, "", err)
	}

	resp, err := envelope.Parse(raw)
	if err != nil {
		log.Printf("actions: %s returned an unreadable payload: %v", function, err)
		return nil, apperr.Upstream(op, "", err)
	}
	log.Printf("actions: %s responded with status %d", function, resp.StatusCode)

	if !resp.OK() {
		return nil, apperr.Upstream(op, failMsg, nil)
	}
	if !json.Valid([]byte(resp.Body)) {
		return nil, apperr.Upstream(op, "", fmt.Errorf("%s returned a body that is not JSON", function))
	}
	return json.RawMessage(resp.Body), nil
}

// getCircularOptions runs the simple recommendation view in-process. The
// location defaults to "unknown".
func getCircularOptions(params ParameterSet) circular.SimpleResult {
	return circular.Simple(circular.Request{
		GarmentType:  params["garment_type"],
		Condition:    params["condition"],
		UserLocation: params.Get("user_location", circular.UnknownLocation),
	})
}
