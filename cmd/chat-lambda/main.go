// Command chat-lambda is the API Gateway chat front door backed by the conversational agent.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/threadher/threadher/internal/app"
	"github.com/threadher/threadher/internal/chat"
	"github.com/threadher/threadher/internal/config"
)

func main() {
	log.SetPrefix("threadher-chat: ")

	cfg, err := config.LoadLambda()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}
	if a.Chat == nil {
		log.Fatalf("AGENT_ID is required")
	}
	lambda.Start(chat.NewHandler(a.Chat).Handle)
}
