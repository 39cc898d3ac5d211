// Package config provides configuration management for ThreadHer.
// It loads settings from environment variables with the THREADHER_ prefix
// and provides sensible defaults for all configuration options. The Lambda
// entrypoints additionally honor the unprefixed variables their deployment
// templates set (DYNAMODB_TABLE, S3_BUCKET, AGENT_ID, AGENT_ALIAS_ID).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Storage engines.
const (
	EngineDynamoDB = "dynamodb"
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

// Blob engines.
const (
	BlobS3    = "s3"
	BlobLocal = "local"
)

// Invoker modes.
const (
	InvokeLocal  = "local"
	InvokeLambda = "lambda"
)

// Security modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds all configuration settings for ThreadHer.
type Config struct {
	Server      ServerConfig
	AWS         AWSConfig
	Storage     StorageConfig
	Blob        BlobConfig
	Vision      VisionConfig
	Recognition RecognitionConfig
	Agent       AgentConfig
	Functions   FunctionsConfig
	Backup      BackupConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host         string  // Server host (default: 127.0.0.1)
	Port         int     // Server port (default: 6464)
	RateLimit    float64 // Requests per second per client, 0 disables (default: 20)
	RateBurst    int     // Burst size (default: 40)
	SecurityMode string  // development or production (default: development)
	APIToken     string  // Bearer token required in production mode
}

// AWSConfig contains AWS client configuration.
type AWSConfig struct {
	Region string // default: us-east-1
}

// StorageConfig contains result persistence configuration.
type StorageConfig struct {
	Engine               string // dynamodb, sqlite, postgres, memory (default: sqlite)
	DataPath             string // Directory for the sqlite database (default: ./data)
	PostgresDSN          string
	CalculationsTable    string // default: ThreadHerCalculations
	CircularOptionsTable string // default: ThreadHerCircularOptions
	GarmentsTable        string // default: ThreadHerGarments
}

// BlobConfig contains image storage configuration.
type BlobConfig struct {
	Engine   string // s3 or local (default: local)
	Bucket   string // default: threadher-garment-images
	LocalDir string // Root directory for the local engine (default: ./data/blobs)
}

// VisionConfig selects the model that describes garment photos.
type VisionConfig struct {
	Provider        string // bedrock, anthropic, none (default: bedrock)
	BedrockModel    string
	AnthropicModel  string
	AnthropicAPIKey string
	AnthropicURL    string
	Timeout         time.Duration // default: 60s
}

// RecognitionConfig contains label detection settings.
type RecognitionConfig struct {
	Enabled       bool    // default: true
	MaxLabels     int     // default: 20
	MinConfidence float64 // default: 70
}

// AgentConfig identifies the conversational agent behind the chat endpoints.
type AgentConfig struct {
	AgentID string
	AliasID string
}

// FunctionsConfig names the tool functions the action router calls.
type FunctionsConfig struct {
	CarbonFunction   string // default: ThreadHer-CarbonCalculator
	AnalyzerFunction string // default: ThreadHer-ImageAnalyzer
	InvokerMode      string // local or lambda (default: local)
}

// BackupConfig controls snapshots of the sqlite result database.
type BackupConfig struct {
	Dir      string        // default: <data path>/backups
	Interval time.Duration // Scheduled snapshots while serving, 0 disables (default: 0)
	Keep     int           // Snapshots retained after each run (default: 24)
	Verify   bool          // default: true
}

// defaults differ between the local server and the Lambda entrypoints.
type defaults struct {
	engine  string
	blob    string
	invoker string
}

var (
	localDefaults  = defaults{engine: EngineSQLite, blob: BlobLocal, invoker: InvokeLocal}
	lambdaDefaults = defaults{engine: EngineDynamoDB, blob: BlobS3, invoker: InvokeLambda}
)

// Load loads configuration for the local server and CLI.
func Load() (*Config, error) {
	cfg := build(localDefaults)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLambda loads configuration for a Lambda entrypoint: DynamoDB, S3 and
// remote tool invocation unless overridden.
func LoadLambda() (*Config, error) {
	cfg := build(lambdaDefaults)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TableOverride returns DYNAMODB_TABLE when set, otherwise def. Each Lambda
// applies it to the one table it writes.
func TableOverride(def string) string {
	return getEnv("DYNAMODB_TABLE", def)
}

// Validate checks every enumerated setting.
func (c *Config) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"THREADHER_STORAGE_ENGINE", c.Storage.Engine, []string{EngineDynamoDB, EngineSQLite, EnginePostgres, EngineMemory}},
		{"THREADHER_BLOB_ENGINE", c.Blob.Engine, []string{BlobS3, BlobLocal}},
		{"THREADHER_VISION_PROVIDER", c.Vision.Provider, []string{"bedrock", "anthropic", "none"}},
		{"THREADHER_INVOKER_MODE", c.Functions.InvokerMode, []string{InvokeLocal, InvokeLambda}},
		{"THREADHER_SECURITY_MODE", c.Server.SecurityMode, []string{ModeDevelopment, ModeProduction}},
	}
	for _, chk := range checks {
		if !contains(chk.allowed, chk.value) {
			return fmt.Errorf("config: invalid %s %q (allowed: %v)", chk.name, chk.value, chk.allowed)
		}
	}
	if c.Storage.Engine == EnginePostgres && c.Storage.PostgresDSN == "" {
		return fmt.Errorf("config: THREADHER_POSTGRES_DSN is required for the postgres engine")
	}
	if c.Server.SecurityMode == ModeProduction && c.Server.APIToken == "" {
		return fmt.Errorf("config: THREADHER_API_TOKEN is required in production mode")
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("config: invalid THREADHER_BACKUP_INTERVAL %v", c.Backup.Interval)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid THREADHER_PORT %d", c.Server.Port)
	}
	return nil
}

func build(d defaults) *Config {
	dataPath := getEnv("THREADHER_DATA_PATH", "./data")
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("THREADHER_HOST", "127.0.0.1"),
			Port:         getEnvInt("THREADHER_PORT", 6464),
			RateLimit:    getEnvFloat("THREADHER_RATE_LIMIT", 20),
			RateBurst:    getEnvInt("THREADHER_RATE_BURST", 40),
			SecurityMode: getEnv("THREADHER_SECURITY_MODE", ModeDevelopment),
			APIToken:     getEnv("THREADHER_API_TOKEN", ""),
		},
		AWS: AWSConfig{
			Region: getEnv("THREADHER_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		},
		Storage: StorageConfig{
			Engine:               getEnv("THREADHER_STORAGE_ENGINE", d.engine),
			DataPath:             dataPath,
			PostgresDSN:          getEnv("THREADHER_POSTGRES_DSN", ""),
			CalculationsTable:    getEnv("THREADHER_CALCULATIONS_TABLE", "ThreadHerCalculations"),
			CircularOptionsTable: getEnv("THREADHER_CIRCULAR_OPTIONS_TABLE", "ThreadHerCircularOptions"),
			GarmentsTable:        getEnv("THREADHER_GARMENTS_TABLE", "ThreadHerGarments"),
		},
		Blob: BlobConfig{
			Engine:   getEnv("THREADHER_BLOB_ENGINE", d.blob),
			Bucket:   getEnv("THREADHER_BUCKET", getEnv("S3_BUCKET", "threadher-garment-images")),
			LocalDir: getEnv("THREADHER_BLOB_DIR", "./data/blobs"),
		},
		Vision: VisionConfig{
			Provider:        getEnv("THREADHER_VISION_PROVIDER", "bedrock"),
			BedrockModel:    getEnv("THREADHER_BEDROCK_MODEL", "anthropic.claude-3-sonnet-20240229-v1:0"),
			AnthropicModel:  getEnv("THREADHER_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
			AnthropicAPIKey: getEnv("THREADHER_ANTHROPIC_API_KEY", ""),
			AnthropicURL:    getEnv("THREADHER_ANTHROPIC_URL", ""),
			Timeout:         getEnvDuration("THREADHER_VISION_TIMEOUT", 60*time.Second),
		},
		Recognition: RecognitionConfig{
			Enabled:       getEnvBool("THREADHER_RECOGNITION_ENABLED", true),
			MaxLabels:     getEnvInt("THREADHER_RECOGNITION_MAX_LABELS", 20),
			MinConfidence: getEnvFloat("THREADHER_RECOGNITION_MIN_CONFIDENCE", 70),
		},
		Agent: AgentConfig{
			AgentID: getEnv("THREADHER_AGENT_ID", getEnv("AGENT_ID", "")),
			AliasID: getEnv("THREADHER_AGENT_ALIAS_ID", getEnv("AGENT_ALIAS_ID", "")),
		},
		Functions: FunctionsConfig{
			CarbonFunction:   getEnv("THREADHER_CARBON_FUNCTION", "ThreadHer-CarbonCalculator"),
			AnalyzerFunction: getEnv("THREADHER_ANALYZER_FUNCTION", "ThreadHer-ImageAnalyzer"),
			InvokerMode:      getEnv("THREADHER_INVOKER_MODE", d.invoker),
		},
		Backup: BackupConfig{
			Dir:      getEnv("THREADHER_BACKUP_DIR", filepath.Join(dataPath, "backups")),
			Interval: getEnvDuration("THREADHER_BACKUP_INTERVAL", 0),
			Keep:     getEnvInt("THREADHER_BACKUP_KEEP", 24),
			Verify:   getEnvBool("THREADHER_BACKUP_VERIFY", true),
		},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
// If the environment variable exists but cannot be parsed as a boolean,
// it returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvDuration parses a Go duration ("90s", "2m"), falling back to the
// default when unset or malformed.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
