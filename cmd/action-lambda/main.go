// Command action-lambda receives agent action-group events and routes them to the tool functions.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/threadher/threadher/internal/app"
	"github.com/threadher/threadher/internal/config"
)

func main() {
	log.SetPrefix("threadher-actions: ")

	cfg, err := config.LoadLambda()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}
	lambda.Start(a.Actions.Handle)
}
