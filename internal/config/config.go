package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the server. It is loaded once at
// startup and injected where needed; nothing reads the environment after
// that.
type Config struct {
	// Server
	Addr         string `envconfig:"ADDR" default:":8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty       bool   `envconfig:"PRETTY_JSON" default:"false"`
	GraphiQL     bool   `envconfig:"GRAPHIQL" default:"true"`
	MaxBodyBytes int64  `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	// CORS: comma-separated origins; empty disables CORS.
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	// Error presentation. Both default off so unexpected errors never leak
	// internals to clients.
	DebugIncludeMessage bool `envconfig:"DEBUG_INCLUDE_MESSAGE" default:"false"`
	DebugIncludeTrace   bool `envconfig:"DEBUG_INCLUDE_TRACE" default:"false"`

	// Execution
	MaxBatchRounds int `envconfig:"MAX_BATCH_ROUNDS" default:"256"`

	// Telemetry
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"graphload"`
	MetricsAddr  string `envconfig:"METRICS_ADDR" default:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
