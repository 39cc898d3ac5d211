// Command analyzer-lambda is the garment photo analysis tool function.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/threadher/threadher/internal/app"
	"github.com/threadher/threadher/internal/config"
)

func main() {
	log.SetPrefix("threadher-analyzer: ")

	cfg, err := config.LoadLambda()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.Storage.GarmentsTable = config.TableOverride(cfg.Storage.GarmentsTable)

	a, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to build app: %v", err)
	}
	lambda.Start(a.Vision.Handle)
}
