package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	EventBusName  string `yaml:"event_bus_name"`
	EventSource   string `yaml:"event_source"`

	// DynamoDB secondary indexes
	ForkNodeIndex string `yaml:"fork_node_index"`
	DepthIndex    string `yaml:"depth_index"`
	ParentIndex   string `yaml:"parent_index"`
	TitleIndex    string `yaml:"title_index"`
	ObjectIndex   string `yaml:"object_index"`

	// Store selection and call policy
	StoreBackend   string        `yaml:"store_backend"`
	StoreTimeout   time.Duration `yaml:"store_timeout"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	RetryInterval  time.Duration `yaml:"retry_interval"`
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`
	BreakerTrips   uint32        `yaml:"breaker_trips"`

	// Query strategy; RuntimeFile may override it while running
	UseRITree   bool   `yaml:"use_ri_tree"`
	RuntimeFile string `yaml:"runtime_file"`

	// Lambda configuration
	IsLambda bool `yaml:"is_lambda"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Observability
	EnableMetrics bool   `yaml:"enable_metrics"`
	EnableTracing bool   `yaml:"enable_tracing"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`
	EnableCORS    bool   `yaml:"enable_cors"`
}

// LoadConfig loads configuration from an optional YAML file named by
// CONFIG_FILE, then environment variables, which take precedence
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress:  ":8080",
		Environment:    "development",
		AWSRegion:      "us-west-2",
		DynamoDBTable:  "chronozoom",
		EventBusName:   "chronozoom-events",
		EventSource:    "chronozoom.timelines",
		ForkNodeIndex:  "ForkNodeIndex",
		DepthIndex:     "DepthIndex",
		ParentIndex:    "ParentIndex",
		TitleIndex:     "TitleIndex",
		ObjectIndex:    "ObjectIndex",
		StoreBackend:   StoreDynamoDB,
		StoreTimeout:   30 * time.Second,
		RetryAttempts:  10,
		RetryInterval:  500 * time.Millisecond,
		BreakerTimeout: 30 * time.Second,
		BreakerTrips:   5,
		UseRITree:      true,
		LogLevel:       "info",
		EnableCORS:     true,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.EventSource = getEnv("EVENT_SOURCE", c.EventSource)

	c.ForkNodeIndex = getEnv("FORK_NODE_INDEX", c.ForkNodeIndex)
	c.DepthIndex = getEnv("DEPTH_INDEX", c.DepthIndex)
	c.ParentIndex = getEnv("PARENT_INDEX", c.ParentIndex)
	c.TitleIndex = getEnv("TITLE_INDEX", c.TitleIndex)
	c.ObjectIndex = getEnv("OBJECT_INDEX", c.ObjectIndex)

	c.StoreBackend = getEnv("STORE_BACKEND", c.StoreBackend)
	c.StoreTimeout = time.Duration(getEnvInt("STORE_TIMEOUT", int(c.StoreTimeout/time.Second))) * time.Second
	c.RetryAttempts = getEnvInt("RETRY_ATTEMPTS", c.RetryAttempts)
	c.RetryInterval = time.Duration(getEnvInt("RETRY_INTERVAL_MS", int(c.RetryInterval/time.Millisecond))) * time.Millisecond

	c.UseRITree = getEnvBool("USE_RI_TREE", c.UseRITree)
	c.RuntimeFile = getEnv("RUNTIME_FILE", c.RuntimeFile)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
	case StoreMemory:
		if c.IsProduction() {
			return fmt.Errorf("memory store cannot be used in production")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	if c.EnableTracing && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
