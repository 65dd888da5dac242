package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/brandon/webhook-agent/internal/adapter/cli"
	"github.com/brandon/webhook-agent/internal/adapter/githubapi"
	"github.com/brandon/webhook-agent/internal/adapter/httpserver"
	"github.com/brandon/webhook-agent/internal/adapter/llm"
	"github.com/brandon/webhook-agent/internal/adapter/llm/anthropic"
	"github.com/brandon/webhook-agent/internal/adapter/llm/google"
	llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"
	"github.com/brandon/webhook-agent/internal/adapter/llm/openai"
	"github.com/brandon/webhook-agent/internal/adapter/llm/openrouter"
	"github.com/brandon/webhook-agent/internal/adapter/metrics"
	"github.com/brandon/webhook-agent/internal/adapter/observability"
	"github.com/brandon/webhook-agent/internal/adapter/output/markdown"
	sqlitestore "github.com/brandon/webhook-agent/internal/adapter/store/sqlite"
	"github.com/brandon/webhook-agent/internal/adapter/webhook"
	"github.com/brandon/webhook-agent/internal/config"
	"github.com/brandon/webhook-agent/internal/redaction"
	"github.com/brandon/webhook-agent/internal/store"
	"github.com/brandon/webhook-agent/internal/usecase/assemble"
	"github.com/brandon/webhook-agent/internal/usecase/execute"
	"github.com/brandon/webhook-agent/internal/usecase/permission"
	"github.com/brandon/webhook-agent/internal/usecase/pipeline"
	"github.com/brandon/webhook-agent/internal/usecase/route"
	"github.com/brandon/webhook-agent/internal/usecase/trigger"
	"github.com/brandon/webhook-agent/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "agentd",
		EnvPrefix:   "AGENTD",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ingress := webhook.NewIngress([]byte(cfg.Webhook.Secret), logger)
	classifier := trigger.NewClassifier(cfg.Webhook.Mention)

	github := githubapi.NewClient(cfg.GitHub.Token, logger)
	gate, err := permission.NewGate(github)
	if err != nil {
		return fmt.Errorf("permission gate setup failed: %w", err)
	}
	gate.SetTTLs(
		duration(cfg.Permission.TTL, permission.DefaultTTL, logger),
		duration(cfg.Permission.ErrorTTL, permission.DefaultErrorTTL, logger),
	)

	builder := assemble.NewBuilder(cfg.Context.MaxContextSize)
	builder.SetRedactor(redaction.NewEngine())

	router := route.NewRouter(route.DefaultRules())
	timeout := duration(cfg.HTTP.Timeout, 120*time.Second, logger)
	supervisor := execute.NewSupervisor(router, buildClients(timeout), llmhttp.NewDefaultPricing(), logger)
	supervisor.SetCallLogger(llmhttp.NewZapLogger(logger, true))
	supervisor.SetRetryOverrides(execute.RetryOverrides{
		MaxRetries: cfg.HTTP.MaxRetries,
		BaseDelay:  duration(cfg.HTTP.InitialBackoff, 0, logger),
		MaxDelay:   duration(cfg.HTTP.MaxBackoff, 0, logger),
		Multiplier: cfg.HTTP.BackoffMultiplier,
	})

	audit, closeAudit := buildAudit(cfg.Store, logger)
	defer closeAudit()

	registry := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New(registry)
	}

	models := cfg.Models.ModelChain()
	orchestrator, err := pipeline.NewOrchestrator(
		ingress,
		classifier,
		gate,
		builder,
		supervisor,
		markdown.NewRenderer(),
		github,
		audit,
		m,
		logger,
		pipeline.Options{
			Models:      models,
			MaxTokens:   cfg.Models.MaxTokens,
			Temperature: cfg.Models.Temperature,
			DedupTTL:    duration(cfg.Webhook.DedupTTL, 10*time.Minute, logger),
		},
	)
	if err != nil {
		return fmt.Errorf("pipeline setup failed: %w", err)
	}

	server := httpserver.New(orchestrator, registry, logger, httpserver.Config{
		Addr:            cfg.Server.Addr,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		RatePerSecond:   cfg.Server.RatePerSecond,
		RateBurst:       cfg.Server.RateBurst,
		MetricsEnabled:  cfg.Observability.Metrics.Enabled,
		ShutdownTimeout: duration(cfg.Server.ShutdownTimeout, 15*time.Second, logger),
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Server:  server,
		Router:  router,
		Models:  models,
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// defaultConfigPaths lists the directories searched for the config file:
// the working directory first, then ~/.config/agentd.
func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "agentd"))
	}
	return paths
}

// buildClients constructs one client per provider. Credentials are read from
// the environment; a client built with an empty key is fine because the
// supervisor validates the credential before any call.
func buildClients(timeout time.Duration) map[string]llm.Client {
	clients := make(map[string]llm.Client)

	anthropicClient := anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"))
	anthropicClient.SetTimeout(timeout)
	clients[anthropicClient.Provider()] = anthropicClient

	openaiClient := openai.NewClient(os.Getenv("OPENAI_API_KEY"))
	openaiClient.SetTimeout(timeout)
	clients[openaiClient.Provider()] = openaiClient

	googleClient := google.NewClient(os.Getenv("GEMINI_API_KEY"))
	googleClient.SetTimeout(timeout)
	clients[googleClient.Provider()] = googleClient

	openrouterClient := openrouter.NewClient(os.Getenv("OPENROUTER_API_KEY"))
	openrouterClient.SetTimeout(timeout)
	clients[openrouterClient.Provider()] = openrouterClient

	return clients
}

// buildAudit opens the SQLite audit store when enabled, falling back to the
// no-op store on any setup failure so the service still starts.
func buildAudit(cfg config.StoreConfig, logger *zap.Logger) (store.Store, func()) {
	if !cfg.Enabled {
		return store.Nop{}, func() {}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		logger.Warn("failed to create store directory; audit disabled", zap.Error(err))
		return store.Nop{}, func() {}
	}
	s, err := sqlitestore.NewStore(cfg.Path)
	if err != nil {
		logger.Warn("failed to open audit store; audit disabled", zap.Error(err))
		return store.Nop{}, func() {}
	}
	return s, func() { _ = s.Close() }
}

// duration parses a config duration, falling back when unset or malformed.
func duration(value string, fallback time.Duration, logger *zap.Logger) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("invalid duration in config; using default",
			zap.String("value", value),
			zap.Duration("default", fallback))
		return fallback
	}
	return parsed
}
