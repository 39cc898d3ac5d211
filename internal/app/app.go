// Package app wires configuration into the tool functions, the agent
// action handler and the chat service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/threadher/threadher/internal/action"
	"github.com/threadher/threadher/internal/carbon"
	"github.com/threadher/threadher/internal/chat"
	"github.com/threadher/threadher/internal/circular"
	"github.com/threadher/threadher/internal/config"
	"github.com/threadher/threadher/internal/llm"
	"github.com/threadher/threadher/internal/recognition"
	"github.com/threadher/threadher/internal/server"
	"github.com/threadher/threadher/internal/storage"
	"github.com/threadher/threadher/internal/storage/dynamo"
	"github.com/threadher/threadher/internal/storage/localblob"
	"github.com/threadher/threadher/internal/storage/memory"
	"github.com/threadher/threadher/internal/storage/postgres"
	"github.com/threadher/threadher/internal/storage/s3blob"
	"github.com/threadher/threadher/internal/storage/sqlite"
	"github.com/threadher/threadher/internal/vision"
)

// SQLiteFile is the database file created under the data path.
const SQLiteFile = "threadher.db"

// App holds every wired component.
type App struct {
	Config *config.Config

	Store storage.ResultStore
	Blobs storage.BlobStore

	Estimator   *carbon.Estimator
	Recommender *circular.Recommender
	Analyzer    *vision.Analyzer
	Invoker     action.Invoker
	Router      *action.Router

	Carbon   *carbon.Handler
	Circular *circular.Handler
	Vision   *vision.Handler
	Actions  *action.Handler

	// Chat is nil when no agent is configured.
	Chat *chat.Service
}

// Option adjusts how Build wires components.
type Option func(*builder)

// WithAWSConfig supplies the AWS configuration instead of loading the default chain.
func WithAWSConfig(cfg aws.Config) Option {
	return func(b *builder) {
		b.aws = &cfg
	}
}

// WithStore replaces the configured result store.
func WithStore(store storage.ResultStore) Option {
	return func(b *builder) { b.store = store }
}

// WithBlobStore replaces the configured blob store.
func WithBlobStore(blobs storage.BlobStore) Option {
	return func(b *builder) { b.blobs = blobs }
}

// WithGenerator replaces the configured vision provider.
func WithGenerator(g llm.VisionGenerator) Option {
	return func(b *builder) {
		b.generator = g
		b.generatorSet = true
	}
}

// WithLabelDetector replaces the configured label detector.
func WithLabelDetector(d recognition.LabelDetector) Option {
	return func(b *builder) {
		b.labels = d
		b.labelsSet = true
	}
}

// WithAgent replaces the configured conversational agent.
func WithAgent(agent chat.AgentInvoker) Option {
	return func(b *builder) { b.agent = agent }
}

type builder struct {
	cfg *config.Config

	awsOnce sync.Once
	aws     *aws.Config
	awsErr  error

	store        storage.ResultStore
	blobs        storage.BlobStore
	generator    llm.VisionGenerator
	generatorSet bool
	labels       recognition.LabelDetector
	labelsSet    bool
	agent        chat.AgentInvoker
}

// awsConfig loads the default AWS configuration once, on first use.
func (b *builder) awsConfig(ctx context.Context) (aws.Config, error) {
	b.awsOnce.Do(func() {
		if b.aws != nil {
			return
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(b.cfg.AWS.Region))
		if err != nil {
			b.awsErr = fmt.Errorf("failed to load aws config: %w", err)
			return
		}
		b.aws = &cfg
	})
	if b.awsErr != nil {
		return aws.Config{}, b.awsErr
	}
	return *b.aws, nil
}

// Build wires an App from cfg.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	b := &builder{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}

	store := b.store
	if store == nil {
		var err error
		if store, err = b.resultStore(ctx); err != nil {
			return nil, err
		}
	}
	blobs := b.blobs
	if blobs == nil {
		var err error
		if blobs, err = b.blobStore(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	a := &App{Config: cfg, Store: store, Blobs: blobs}
	if err := b.wire(ctx, a); err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func (b *builder) wire(ctx context.Context, a *App) error {
	cfg := b.cfg

	a.Estimator = carbon.NewEstimator(carbon.WithStore(a.Store, cfg.Storage.CalculationsTable))
	a.Recommender = circular.NewRecommender(circular.WithStore(a.Store, cfg.Storage.CircularOptionsTable))

	generator, err := b.visionGenerator(ctx)
	if err != nil {
		return err
	}
	labels, err := b.labelDetector(ctx)
	if err != nil {
		return err
	}
	analyzerOpts := []vision.Option{vision.WithStore(a.Store, cfg.Storage.GarmentsTable)}
	if generator != nil {
		analyzerOpts = append(analyzerOpts, vision.WithGenerator(generator))
	}
	if labels != nil {
		analyzerOpts = append(analyzerOpts, vision.WithLabelDetector(labels))
	}
	a.Analyzer = vision.NewAnalyzer(a.Blobs, analyzerOpts...)

	a.Carbon = carbon.NewHandler(a.Estimator)
	a.Circular = circular.NewHandler(a.Recommender)
	a.Vision = vision.NewHandler(a.Analyzer)

	switch cfg.Functions.InvokerMode {
	case config.InvokeLambda:
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return err
		}
		a.Invoker = action.NewLambdaInvokerFromConfig(awsCfg)
	default:
		local := action.NewLocalInvoker()
		local.Register(cfg.Functions.CarbonFunction, a.Carbon.Handle)
		local.Register(cfg.Functions.AnalyzerFunction, a.Vision.Handle)
		a.Invoker = local
	}
	a.Router = action.NewRouter(a.Invoker,
		action.WithCarbonFunction(cfg.Functions.CarbonFunction),
		action.WithAnalyzerFunction(cfg.Functions.AnalyzerFunction),
	)
	a.Actions = action.NewHandler(a.Router)

	agent := b.agent
	if agent == nil && cfg.Agent.AgentID != "" {
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return err
		}
		agent = chat.NewBedrockAgentFromConfig(awsCfg, cfg.Agent.AgentID, cfg.Agent.AliasID)
	}
	if agent != nil {
		a.Chat = chat.NewService(agent, chat.WithUploads(a.Blobs, cfg.Blob.Bucket))
	} else {
		log.Printf("app: no agent configured, chat endpoints disabled")
	}
	return nil
}

func (b *builder) resultStore(ctx context.Context) (storage.ResultStore, error) {
	cfg := b.cfg.Storage
	switch cfg.Engine {
	case config.EngineDynamoDB:
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return dynamo.NewFromConfig(awsCfg), nil
	case config.EngineSQLite:
		if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data path: %w", err)
		}
		return sqlite.NewResultStore(ctx, filepath.Join(cfg.DataPath, SQLiteFile))
	case config.EnginePostgres:
		return postgres.NewResultStore(ctx, cfg.PostgresDSN)
	case config.EngineMemory:
		return memory.NewResultStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage engine: %q", cfg.Engine)
	}
}

func (b *builder) blobStore(ctx context.Context) (storage.BlobStore, error) {
	cfg := b.cfg.Blob
	switch cfg.Engine {
	case config.BlobS3:
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return s3blob.NewFromConfig(awsCfg), nil
	case config.BlobLocal:
		return localblob.New(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unsupported blob engine: %q", cfg.Engine)
	}
}

func (b *builder) visionGenerator(ctx context.Context) (llm.VisionGenerator, error) {
	if b.generatorSet {
		return b.generator, nil
	}
	cfg := b.cfg.Vision
	if cfg.Provider == llm.ProviderBedrock {
		awsCfg, err := b.awsConfig(ctx)
		if err != nil {
			return nil, err
		}
		return llm.NewBedrockClientFromConfig(awsCfg, llm.BedrockConfig{Model: cfg.BedrockModel}), nil
	}
	return llm.NewVisionGenerator(ctx, llm.Config{
		Provider:        cfg.Provider,
		Region:          b.cfg.AWS.Region,
		BedrockModel:    cfg.BedrockModel,
		AnthropicModel:  cfg.AnthropicModel,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicURL:    cfg.AnthropicURL,
		Timeout:         cfg.Timeout,
	})
}

func (b *builder) labelDetector(ctx context.Context) (recognition.LabelDetector, error) {
	if b.labelsSet {
		return b.labels, nil
	}
	cfg := b.cfg.Recognition
	if !cfg.Enabled {
		return nil, nil
	}
	awsCfg, err := b.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	opts := []recognition.Option{recognition.WithLimits(int32(cfg.MaxLabels), float32(cfg.MinConfidence))}
	if b.cfg.Blob.Engine != config.BlobS3 {
		opts = append(opts, recognition.WithInlineBytes())
	}
	return recognition.NewFromConfig(awsCfg, opts...), nil
}

// Close releases the result store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// Tools maps each action path to the tool function serving it.
func (a *App) Tools() map[string]action.FunctionHandler {
	return map[string]action.FunctionHandler{
		action.PathAnalyzeGarment:     a.Vision.Handle,
		action.PathCalculateCarbon:    a.Carbon.Handle,
		action.PathGetCircularOptions: a.Circular.Handle,
	}
}

// ServerHandlers returns the components the HTTP server routes.
func (a *App) ServerHandlers() server.Handlers {
	return server.Handlers{Actions: a.Actions, Tools: a.Tools(), Chat: a.Chat}
}
