package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/threadher/threadher/internal/breaker"
)

// AgentInvoker sends one user turn to the conversational agent and delivers
// the reply in chunks as they arrive.
type AgentInvoker interface {
	InvokeAgent(ctx context.Context, sessionID, input string, onChunk func([]byte) error) error
}

// AgentAPI is the subset of the Bedrock agent runtime client in use.
type AgentAPI interface {
	InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// BedrockAgent implements AgentInvoker with a Bedrock agent alias.
type BedrockAgent struct {
	api     AgentAPI
	agentID string
	aliasID string
	breaker *breaker.Breaker
}

// NewBedrockAgent wraps an agent runtime client.
func NewBedrockAgent(api AgentAPI, agentID, aliasID string) *BedrockAgent {
	return &BedrockAgent{
		api:     api,
		agentID: agentID,
		aliasID: aliasID,
		breaker: breaker.New("agent:" + agentID),
	}
}

// NewBedrockAgentFromConfig builds an agent client from an AWS configuration.
func NewBedrockAgentFromConfig(cfg aws.Config, agentID, aliasID string) *BedrockAgent {
	return NewBedrockAgent(bedrockagentruntime.NewFromConfig(cfg), agentID, aliasID)
}

// InvokeAgent starts the agent turn and relays every chunk to onChunk.
// Only the call that opens the stream goes through the breaker.
func (a *BedrockAgent) InvokeAgent(ctx context.Context, sessionID, input string, onChunk func([]byte) error) error {
	out, err := breaker.Do(ctx, a.breaker, func() (*bedrockagentruntime.InvokeAgentOutput, error) {
		return a.api.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
			AgentId:      aws.String(a.agentID),
			AgentAliasId: aws.String(a.aliasID),
			SessionId:    aws.String(sessionID),
			InputText:    aws.String(input),
			EnableTrace:  aws.Bool(false),
		})
	})
	if err != nil {
		return fmt.Errorf("invoke agent: %w", err)
	}

	stream := out.GetStream()
	if stream == nil {
		return errors.New("invoke agent: no response stream")
	}
	defer stream.Close()

	if err := relayChunks(ctx, stream.Events(), onChunk); err != nil {
		return err
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("agent stream: %w", err)
	}
	return nil
}

// relayChunks forwards chunk payloads until events closes. Trace and other
// event kinds are skipped.
func relayChunks(ctx context.Context, events <-chan agenttypes.ResponseStream, onChunk func([]byte) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			chunk, isChunk := ev.(*agenttypes.ResponseStreamMemberChunk)
			if !isChunk || len(chunk.Value.Bytes) == 0 {
				continue
			}
			if err := onChunk(chunk.Value.Bytes); err != nil {
				return err
			}
		}
	}
}
