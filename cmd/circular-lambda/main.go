// Command circular-lambda is the circular-options tool function.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/threadher/threadher/internal/app"
	"github.com/threadher/threadher/internal/config"
)

func main() {
	log.SetPrefix("threadher-circular: ")

	cfg, err := config.LoadLambda()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.Storage.CircularOptionsTable = config.TableOverride(cfg.Storage.CircularOptionsTable)

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}
	lambda.Start(a.Circular.Handle)
}
