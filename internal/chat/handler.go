package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/threadher/threadher/internal/apperr"
)

// CORSHeaders are sent on every chat response.
var CORSHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
	"Access-Control-Allow-Methods": "POST, OPTIONS, GET",
}

// ErrorBody is the body of a failed chat response.
type ErrorBody struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

// Handler serves chat turns arriving through an API gateway.
type Handler struct {
	svc *Service
}

// NewHandler wraps svc.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Handle answers OPTIONS preflights and POSTed chat turns.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Headers: headers()}, nil
	}

	body := req.Body
	if body == "" {
		body = "{}"
	}
	var chatReq Request
	if err := json.Unmarshal([]byte(body), &chatReq); err != nil {
		return respond(http.StatusBadRequest, ErrorBody{Error: "invalid request body: " + err.Error(), Type: apperr.KindValidation.String()}), nil
	}

	status, v := h.Serve(ctx, chatReq)
	return respond(status, v), nil
}

// Serve runs one chat turn and returns the status and body to send.
func (h *Handler) Serve(ctx context.Context, req Request) (int, any) {
	resp, err := h.svc.Ask(ctx, req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return http.StatusBadRequest, ErrorBody{Error: err.Error()}
		}
		log.Printf("chat: error: %v", err)
		return http.StatusInternalServerError, ErrorBody{Error: err.Error(), Type: apperr.KindOf(err).String()}
	}
	return http.StatusOK, resp
}

func respond(status int, v any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorBody{Error: err.Error()})
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers(), Body: string(data)}
}

func headers() map[string]string {
	h := make(map[string]string, len(CORSHeaders))
	for k, v := range CORSHeaders {
		h[k] = v
	}
	return h
}
