package config

// Config represents the full service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	GitHub        GitHubConfig        `yaml:"github"`
	Models        ModelsConfig        `yaml:"models"`
	HTTP          HTTPConfig          `yaml:"http"`
	Context       ContextConfig       `yaml:"context"`
	Permission    PermissionConfig    `yaml:"permission"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// RatePerSecond and RateBurst bound inbound webhook traffic.
	RatePerSecond float64 `yaml:"ratePerSecond"`
	RateBurst     int     `yaml:"rateBurst"`

	// MaxBodyBytes caps how much of a request body is read.
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`

	ShutdownTimeout string `yaml:"shutdownTimeout"`
}

// WebhookConfig configures delivery authentication and trigger detection.
type WebhookConfig struct {
	// Secret is the shared HMAC secret. Supports ${VAR} expansion.
	Secret string `yaml:"secret"`

	// Mention is the trigger phrase scanned for in event text.
	Mention string `yaml:"mention"`

	// DedupTTL is how long delivery IDs are remembered for duplicate
	// suppression.
	DedupTTL string `yaml:"dedupTTL"`
}

// GitHubConfig configures the platform API client.
type GitHubConfig struct {
	// Token authenticates permission lookups and comment posting.
	// Supports ${VAR} expansion.
	Token string `yaml:"token"`
}

// ModelsConfig selects the model chain.
type ModelsConfig struct {
	Primary     string   `yaml:"primary"`
	Fallbacks   []string `yaml:"fallbacks"`
	MaxTokens   int      `yaml:"maxTokens"`
	Temperature float64  `yaml:"temperature"`
}

// HTTPConfig holds global provider-client settings. The retry fields are
// operator overrides: zero or empty values leave each provider's routing
// descriptor defaults in effect.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// ContextConfig bounds the assembled problem context.
type ContextConfig struct {
	MaxContextSize int `yaml:"maxContextSize"`
}

// PermissionConfig tunes the authorization decision cache.
type PermissionConfig struct {
	TTL      string `yaml:"ttl"`
	ErrorTTL string `yaml:"errorTTL"`
}

// StoreConfig configures the delivery audit store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ModelChain returns the primary model followed by the fallbacks.
func (c ModelsConfig) ModelChain() []string {
	chain := make([]string, 0, 1+len(c.Fallbacks))
	if c.Primary != "" {
		chain = append(chain, c.Primary)
	}
	return append(chain, c.Fallbacks...)
}
