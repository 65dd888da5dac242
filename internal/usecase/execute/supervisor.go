// Package execute drives a logical request through an ordered model chain:
// the primary model first, then each configured fallback. Same-model retries
// happen here, not inside the provider adapters, so every attempt lands in a
// single audit trail with its classification and cost.
package execute

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/brandon/webhook-agent/internal/adapter/llm"
	llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"
	"github.com/brandon/webhook-agent/internal/domain"
	"github.com/brandon/webhook-agent/internal/usecase/route"
)

// Request is one logical generation request plus the model chain to try.
type Request struct {
	// Models is the ordered chain: primary first, fallbacks after. Repeated
	// entries are attempted once; a model that failed is never revisited.
	Models []string

	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// RetryOverrides carries operator-level retry tuning from configuration.
// Zero-valued fields leave the per-provider descriptor defaults in place.
type RetryOverrides struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// Supervisor owns retry and fallback policy across provider clients.
type Supervisor struct {
	router    *route.Router
	clients   map[string]llm.Client
	pricing   llmhttp.Pricing
	logger    *zap.Logger
	callLog   llmhttp.Logger
	overrides RetryOverrides
	sleep     func(context.Context, time.Duration) error
	now       func() time.Time
}

// NewSupervisor creates a supervisor over the given provider clients, keyed
// by provider identifier.
func NewSupervisor(router *route.Router, clients map[string]llm.Client, pricing llmhttp.Pricing, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		router:  router,
		clients: clients,
		pricing: pricing,
		logger:  logger,
		sleep:   llmhttp.Sleep,
		now:     time.Now,
	}
}

// SetRetryOverrides applies operator-level retry tuning over the descriptor
// defaults.
func (s *Supervisor) SetRetryOverrides(overrides RetryOverrides) {
	s.overrides = overrides
}

// SetCallLogger enables per-call request/response telemetry.
func (s *Supervisor) SetCallLogger(callLog llmhttp.Logger) {
	s.callLog = callLog
}

// SetSleep overrides the delay function (for testing).
func (s *Supervisor) SetSleep(sleep func(context.Context, time.Duration) error) {
	s.sleep = sleep
}

// SetClock overrides the time source (for testing).
func (s *Supervisor) SetClock(now func() time.Time) {
	s.now = now
}

// Execute works through the model chain until one model succeeds or the chain
// is exhausted. The returned result always carries the full attempt trail and
// the total cost across every attempt, including failed ones.
func (s *Supervisor) Execute(ctx context.Context, req Request) domain.ExecutionResult {
	var result domain.ExecutionResult
	tried := make(map[string]bool, len(req.Models))

	lastClass := llmhttp.ClassUnknown
	lastMessage := "no models configured"

	for _, model := range req.Models {
		if tried[model] {
			continue
		}
		tried[model] = true

		if err := ctx.Err(); err != nil {
			lastClass, lastMessage = llmhttp.ClassTimeout, err.Error()
			break
		}

		desc, err := s.router.Resolve(model)
		if err != nil {
			s.recordSkip(&result, model, "", llmhttp.ClassModelUnavailable)
			lastClass, lastMessage = llmhttp.ClassModelUnavailable, err.Error()
			continue
		}
		if err := s.router.ValidateCredential(desc); err != nil {
			s.recordSkip(&result, model, desc.Provider, llmhttp.ClassAuth)
			lastClass, lastMessage = llmhttp.ClassAuth, err.Error()
			continue
		}
		client, ok := s.clients[desc.Provider]
		if !ok {
			s.recordSkip(&result, model, desc.Provider, llmhttp.ClassModelUnavailable)
			lastClass = llmhttp.ClassModelUnavailable
			lastMessage = fmt.Sprintf("no client registered for provider %q", desc.Provider)
			continue
		}

		resp, classified := s.tryModel(ctx, &result, client, desc, model, req)
		if classified == nil {
			result.Success = true
			result.Content = resp.Content
			result.Model = model
			s.logger.Info("execution succeeded",
				zap.String("model", model),
				zap.String("provider", desc.Provider),
				zap.Int("attempts", len(result.Attempts)),
				zap.Float64("totalCost", result.TotalCost))
			return result
		}

		lastClass, lastMessage = classified.Class, classified.Message
		s.logger.Warn("model exhausted, falling back",
			zap.String("model", model),
			zap.String("provider", desc.Provider),
			zap.String("class", string(classified.Class)))

		// Transient failure classes get a pause before the next model so a
		// provider-wide incident is not hammered across the whole chain.
		// Deterministic failures move on immediately.
		if classified.Class.Retryable() {
			if err := s.sleep(ctx, fallbackDelay(classified.Class, s.retryConfigFor(desc))); err != nil {
				break
			}
		}
	}

	result.TerminalError = &domain.TerminalError{
		Class:           string(lastClass),
		Message:         fmt.Sprintf("all models exhausted: %s", lastMessage),
		AttemptedModels: result.AttemptedModels(),
		Hint:            HintFor(lastClass),
	}
	s.logger.Error("execution exhausted every model",
		zap.Strings("models", result.TerminalError.AttemptedModels),
		zap.String("class", string(lastClass)),
		zap.Float64("totalCost", result.TotalCost))
	return result
}

// tryModel runs up to 1+MaxRetries attempts against one model, appending each
// attempt to the trail. A nil returned error means the last attempt succeeded.
func (s *Supervisor) tryModel(ctx context.Context, result *domain.ExecutionResult, client llm.Client, desc domain.ProviderDescriptor, model string, req Request) (*llm.GenerateResponse, *llmhttp.Error) {
	config := s.retryConfigFor(desc)
	var classified *llmhttp.Error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if s.callLog != nil {
			s.callLog.LogRequest(ctx, llmhttp.RequestLog{
				Provider:    desc.Provider,
				Model:       model,
				PromptChars: len(req.System) + len(req.Prompt),
				APIKey:      s.router.Credential(desc),
			})
		}

		started := s.now()
		resp, err := client.Generate(ctx, llm.GenerateRequest{
			Model:       model,
			System:      req.System,
			Prompt:      req.Prompt,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		})
		duration := s.now().Sub(started)

		if err == nil {
			cost := s.pricing.Cost(desc.Provider, model, resp.TokensIn, resp.TokensOut)
			result.TotalCost += cost
			if s.callLog != nil {
				s.callLog.LogResponse(ctx, llmhttp.ResponseLog{
					Provider:  desc.Provider,
					Model:     model,
					Duration:  duration,
					TokensIn:  resp.TokensIn,
					TokensOut: resp.TokensOut,
					Cost:      cost,
					Content:   resp.Content,
				})
			}
			result.Attempts = append(result.Attempts, domain.ExecutionAttempt{
				Model:        model,
				Provider:     desc.Provider,
				StartedAt:    started,
				Duration:     duration,
				Outcome:      domain.OutcomeSuccess,
				CostIncurred: cost,
			})
			return resp, nil
		}

		classified = llmhttp.ClassifyError(desc.Provider, err)
		if s.callLog != nil {
			s.callLog.LogError(ctx, llmhttp.ErrorLog{
				Provider:   desc.Provider,
				Model:      model,
				Duration:   duration,
				Err:        classified,
				Class:      classified.Class,
				StatusCode: classified.StatusCode,
				Retryable:  classified.Class.Retryable(),
			})
		}

		// Failed calls still consume the prompt on the provider side, so the
		// input-side cost is charged to the trail from the token estimate.
		cost := s.pricing.Cost(desc.Provider, model, llm.EstimateTokens(req.System+req.Prompt), 0)
		outcome := domain.OutcomeFatal
		if classified.Class.Retryable() {
			outcome = domain.OutcomeRetryable
		}
		result.TotalCost += cost
		result.Attempts = append(result.Attempts, domain.ExecutionAttempt{
			Model:        model,
			Provider:     desc.Provider,
			StartedAt:    started,
			Duration:     duration,
			Outcome:      outcome,
			ErrorClass:   string(classified.Class),
			CostIncurred: cost,
		})

		if outcome == domain.OutcomeFatal || attempt >= config.MaxRetries {
			return nil, classified
		}

		base := llmhttp.Backoff(attempt, classified.Class, config)
		if err := s.sleep(ctx, base+llmhttp.Jitter(base)); err != nil {
			return nil, llmhttp.NewTimeoutError(desc.Provider, err.Error())
		}
	}

	return nil, classified
}

// recordSkip writes a zero-duration fatal attempt for a model that could not
// be called at all, keeping the audit trail complete.
func (s *Supervisor) recordSkip(result *domain.ExecutionResult, model, provider string, class llmhttp.ErrorClass) {
	result.Attempts = append(result.Attempts, domain.ExecutionAttempt{
		Model:      model,
		Provider:   provider,
		StartedAt:  s.now(),
		Outcome:    domain.OutcomeFatal,
		ErrorClass: string(class),
	})
}

// fallbackDelay is the pause before moving to the next model. Rate limits
// outlive single calls: the quota window needs room to recover, so they wait
// one multiplier step longer than other transient classes.
func fallbackDelay(class llmhttp.ErrorClass, config llmhttp.RetryConfig) time.Duration {
	if class == llmhttp.ClassRateLimit {
		return llmhttp.Backoff(1, class, config)
	}
	return llmhttp.Backoff(0, class, config)
}

// retryConfigFor derives same-model retry settings for one provider:
// built-in defaults, then the descriptor's budget and base delay, then any
// operator-level overrides on top.
func (s *Supervisor) retryConfigFor(desc domain.ProviderDescriptor) llmhttp.RetryConfig {
	config := llmhttp.DefaultRetryConfig()
	if desc.MaxRetries > 0 {
		config.MaxRetries = desc.MaxRetries
	}
	if desc.BaseDelay > 0 {
		config.BaseDelay = desc.BaseDelay
	}
	if s.overrides.MaxRetries > 0 {
		config.MaxRetries = s.overrides.MaxRetries
	}
	if s.overrides.BaseDelay > 0 {
		config.BaseDelay = s.overrides.BaseDelay
	}
	if s.overrides.MaxDelay > 0 {
		config.MaxDelay = s.overrides.MaxDelay
	}
	if s.overrides.Multiplier > 0 {
		config.Multiplier = s.overrides.Multiplier
	}
	return config
}
