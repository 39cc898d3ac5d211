package action

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/threadher/threadher/internal/apperr"
)

// MessageVersion is the agent response format version.
const MessageVersion = "1.0"

// ContentType is the media type of every response body.
const ContentType = "application/json"

// Event is a tool invocation from the agent runtime.
type Event struct {
	MessageVersion string          `json:"messageVersion,omitempty"`
	Agent          json.RawMessage `json:"agent,omitempty"`
	InputText      string          `json:"inputText,omitempty"`
	SessionID      string          `json:"sessionId,omitempty"`
	ActionGroup    string          `json:"actionGroup"`
	APIPath        string          `json:"apiPath"`
	HTTPMethod     string          `json:"httpMethod,omitempty"`
	RequestBody    json.RawMessage `json:"requestBody,omitempty"`
}

// Response is the reply to an Event.
type Response struct {
	MessageVersion string         `json:"messageVersion"`
	Response       ActionResponse `json:"response"`
}

// ActionResponse echoes the invocation and carries the result.
type ActionResponse struct {
	ActionGroup    string          `json:"actionGroup"`
	APIPath        string          `json:"apiPath"`
	HTTPMethod     string          `json:"httpMethod"`
	HTTPStatusCode int             `json:"httpStatusCode"`
	ResponseBody   map[string]Body `json:"responseBody"`
}

// Body holds the JSON-encoded result.
type Body struct {
	Body string `json:"body"`
}

// ResultBody returns the JSON body for ContentType.
func (r Response) ResultBody() string {
	return r.Response.ResponseBody[ContentType].Body
}

// Handler turns agent events into agent responses.
type Handler struct {
	router *Router
}

// NewHandler wraps router.
func NewHandler(router *Router) *Handler {
	return &Handler{router: router}
}

// Handle routes ev. Routed failures (unknown action, failed tool call) are
// reported in the body as {"error": ...} with status 200; anything else,
// including a panic, is reported with status 500. The returned error is
// always nil so the agent always receives a well-formed response.
func (h *Handler) Handle(ctx context.Context, ev Event) (resp Response, _ error) {
	method := ev.HTTPMethod
	if method == "" {
		method = http.MethodPost
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("actions: error in action handler: %v", r)
			resp = newResponse(ev, method, http.StatusInternalServerError, errorBody(fmt.Sprint(r)))
		}
	}()

	params := Extract(ev.RequestBody)
	log.Printf("actions: action %s, parameters: %v", ev.APIPath, params)

	result, err := h.router.Route(ctx, ev.APIPath, params)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindValidation, apperr.KindUpstream, apperr.KindNotFound:
			return newResponse(ev, method, http.StatusOK, errorBody(err.Error())), nil
		default:
			log.Printf("actions: error in action handler: %v", err)
			return newResponse(ev, method, http.StatusInternalServerError, errorBody(err.Error())), nil
		}
	}

	body, err := json.Marshal(result)
	if err != nil {
		log.Printf("actions: failed to encode result: %v", err)
		return newResponse(ev, method, http.StatusInternalServerError, errorBody(err.Error())), nil
	}
	return newResponse(ev, method, http.StatusOK, string(body)), nil
}

func errorBody(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

func newResponse(ev Event, method string, status int, body string) Response {
	return Response{
		MessageVersion: MessageVersion,
		Response: ActionResponse{
			ActionGroup:    ev.ActionGroup,
			APIPath:        ev.APIPath,
			HTTPMethod:     method,
			HTTPStatusCode: status,
			ResponseBody:   map[string]Body{ContentType: {Body: body}},
		},
	}
}
