package action

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/threadher/threadher/internal/breaker"
	"github.com/threadher/threadher/internal/envelope"
)

// Invoker calls a named tool function synchronously and returns its raw
// response payload.
type Invoker interface {
	Invoke(ctx context.Context, function string, payload []byte) ([]byte, error)
}

// FunctionHandler is an in-process tool entrypoint.
type FunctionHandler func(ctx context.Context, event json.RawMessage) (envelope.Response, error)

// LocalInvoker dispatches to handlers registered in the same process.
type LocalInvoker struct {
	mu       sync.RWMutex
	handlers map[string]FunctionHandler
}

// NewLocalInvoker returns an empty registry.
func NewLocalInvoker() *LocalInvoker {
	return &LocalInvoker{handlers: make(map[string]FunctionHandler)}
}

// Register binds name to h, replacing any previous handler.
func (l *LocalInvoker) Register(name string, h FunctionHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[name] = h
}

// Invoke runs the handler registered under function.
func (l *LocalInvoker) Invoke(ctx context.Context, function string, payload []byte) ([]byte, error) {
	l.mu.RLock()
	h, ok := l.handlers[function]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("function not found: %s", function)
	}

	resp, err := h(ctx, json.RawMessage(payload))
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

// LambdaAPI is the subset of the Lambda client LambdaInvoker uses.
type LambdaAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaInvoker invokes deployed functions with RequestResponse semantics.
// Each function has its own circuit breaker.
type LambdaInvoker struct {
	client LambdaAPI

	mu       sync.Mutex
	breakers map[string]*breaker.Breaker
}

// NewLambdaInvoker wraps client.
func NewLambdaInvoker(client LambdaAPI) *LambdaInvoker {
	return &LambdaInvoker{client: client, breakers: make(map[string]*breaker.Breaker)}
}

// NewLambdaInvokerFromConfig builds a LambdaInvoker from an AWS config.
func NewLambdaInvokerFromConfig(cfg aws.Config) *LambdaInvoker {
	return NewLambdaInvoker(lambda.NewFromConfig(cfg))
}

func (l *LambdaInvoker) breakerFor(function string) *breaker.Breaker {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.breakers[function]
	if !ok {
		b = breaker.New("lambda:" + function)
		l.breakers[function] = b
	}
	return b
}

// Invoke calls function and returns its payload. A function error (an
// unhandled exception in the callee) is returned as an error.
func (l *LambdaInvoker) Invoke(ctx context.Context, function string, payload []byte) ([]byte, error) {
	return breaker.Do(ctx, l.breakerFor(function), func() ([]byte, error) {
		out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
			FunctionName:   aws.String(function),
			InvocationType: lambdatypes.InvocationTypeRequestResponse,
			Payload:        payload,
		})
		if err != nil {
			return nil, fmt.Errorf("invoke %s: %w", function, err)
		}
		if out.FunctionError != nil {
			log.Printf("actions: %s returned function error %s: %s", function, *out.FunctionError, out.Payload)
			return nil, fmt.Errorf("invoke %s: %s", function, *out.FunctionError)
		}
		return out.Payload, nil
	})
}
