// Package pipeline wires one webhook delivery through ingestion, trigger
// classification, authorization, context assembly, execution, and
// presentation. Each stage either advances the delivery or turns it into a
// terminal disposition; nothing downstream of a failed stage runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/brandon/webhook-agent/internal/adapter/metrics"
	"github.com/brandon/webhook-agent/internal/adapter/output/markdown"
	"github.com/brandon/webhook-agent/internal/cache"
	"github.com/brandon/webhook-agent/internal/domain"
	"github.com/brandon/webhook-agent/internal/store"
	"github.com/brandon/webhook-agent/internal/usecase/execute"
)

const dedupCacheSize = 4096

// Ingestor authenticates and parses raw deliveries.
type Ingestor interface {
	Ingest(body []byte, header http.Header) (domain.WebhookEnvelope, error)
}

// Classifier scans event text for the trigger mention.
type Classifier interface {
	Classify(text string, isPullRequest bool) domain.TriggerCommand
}

// Authorizer decides whether the actor may run the operation.
type Authorizer interface {
	Authorize(ctx context.Context, repo domain.Repository, actor domain.Actor, operation domain.Operation) domain.PermissionDecision
}

// ContextBuilder assembles the bounded problem context.
type ContextBuilder interface {
	Build(env domain.WebhookEnvelope, cmd domain.TriggerCommand) domain.ProblemContext
}

// Executor drives the model chain.
type Executor interface {
	Execute(ctx context.Context, req execute.Request) domain.ExecutionResult
}

// Poster publishes the rendered result back to the triggering thread.
type Poster interface {
	PostComment(ctx context.Context, repo domain.Repository, number int, body string) error
}

// Options carries the per-deployment execution settings.
type Options struct {
	Models      []string
	MaxTokens   int
	Temperature float64
	DedupTTL    time.Duration
}

// Outcome is the terminal record of one processed delivery.
type Outcome struct {
	Disposition string
	Detail      string
	Intent      domain.Intent
	Envelope    domain.WebhookEnvelope
	Result      *domain.ExecutionResult
}

// Orchestrator runs the six-stage pipeline.
type Orchestrator struct {
	ingress    Ingestor
	classifier Classifier
	gate       Authorizer
	builder    ContextBuilder
	supervisor Executor
	renderer   *markdown.Renderer
	poster     Poster
	audit      store.Store
	metrics    *metrics.Metrics
	logger     *zap.Logger
	options    Options
	seen       *cache.TTL[string, time.Time]
	now        func() time.Time
}

// NewOrchestrator wires the pipeline stages together. audit may be store.Nop
// and metrics may be nil when those surfaces are disabled.
func NewOrchestrator(
	ingress Ingestor,
	classifier Classifier,
	gate Authorizer,
	builder ContextBuilder,
	supervisor Executor,
	renderer *markdown.Renderer,
	poster Poster,
	audit store.Store,
	m *metrics.Metrics,
	logger *zap.Logger,
	options Options,
) (*Orchestrator, error) {
	seen, err := cache.NewTTL[string, time.Time](dedupCacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = store.Nop{}
	}
	if options.DedupTTL <= 0 {
		options.DedupTTL = 10 * time.Minute
	}
	return &Orchestrator{
		ingress:    ingress,
		classifier: classifier,
		gate:       gate,
		builder:    builder,
		supervisor: supervisor,
		renderer:   renderer,
		poster:     poster,
		audit:      audit,
		metrics:    m,
		logger:     logger,
		options:    options,
		seen:       seen,
		now:        time.Now,
	}, nil
}

// SetClock overrides the time source (for testing).
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
	o.seen.SetClock(now)
}

// Process runs one delivery through the pipeline. The error identifies the
// failing stage for transport-level status mapping; skip-class errors still
// come with a fully populated Outcome.
func (o *Orchestrator) Process(ctx context.Context, body []byte, header http.Header) (Outcome, error) {
	started := o.now()

	env, err := o.ingress.Ingest(body, header)
	if err != nil {
		return o.finish(ctx, started, Outcome{Disposition: store.DispositionSkipped, Detail: err.Error(), Envelope: env},
			&domain.StageError{Stage: domain.StageIngress, Err: err})
	}

	if env.DeliveryID != "" {
		if _, dup := o.seen.Get(env.DeliveryID); dup {
			err := fmt.Errorf("delivery %s: %w", env.DeliveryID, domain.ErrDuplicateDelivery)
			return o.finish(ctx, started, Outcome{Disposition: store.DispositionSkipped, Detail: err.Error(), Envelope: env},
				&domain.StageError{Stage: domain.StageIngress, Err: err})
		}
		o.seen.Set(env.DeliveryID, started, o.options.DedupTTL)
	}

	// The service must never respond to itself: a bot-authored comment that
	// contains the mention would otherwise loop forever.
	if env.Sender.IsBot {
		return o.finish(ctx, started, Outcome{Disposition: store.DispositionSkipped, Detail: "bot sender", Envelope: env}, nil)
	}

	cmd := o.classifier.Classify(env.Text(), env.IsPullRequest)
	if !cmd.Triggered {
		return o.finish(ctx, started, Outcome{Disposition: store.DispositionSkipped, Detail: "no trigger mention", Envelope: env},
			&domain.StageError{Stage: domain.StageTrigger, Err: domain.ErrNoTrigger})
	}

	operation := domain.OperationForIntent(cmd.Intent)
	decision := o.gate.Authorize(ctx, env.Repository, env.Sender, operation)
	if !decision.Allowed {
		o.logger.Info("delivery denied",
			zap.String("deliveryId", env.DeliveryID),
			zap.String("actor", env.Sender.Login),
			zap.String("reason", decision.Reason))
		outcome := Outcome{Disposition: store.DispositionDenied, Detail: decision.Reason, Intent: cmd.Intent, Envelope: env}
		return o.finish(ctx, started, outcome,
			&domain.StageError{Stage: domain.StagePermission, Err: domain.ErrPermissionDenied})
	}

	pc := o.builder.Build(env, cmd)
	system, prompt := BuildPrompt(pc, cmd)

	result := o.supervisor.Execute(ctx, execute.Request{
		Models:      o.options.Models,
		System:      system,
		Prompt:      prompt,
		MaxTokens:   o.options.MaxTokens,
		Temperature: o.options.Temperature,
	})

	if o.poster != nil && o.renderer != nil {
		comment := o.renderer.Render(pc, result)
		if err := o.poster.PostComment(ctx, env.Repository, env.IssueNumber, comment); err != nil {
			o.logger.Error("failed to post result comment",
				zap.String("deliveryId", env.DeliveryID),
				zap.Error(err))
		}
	}

	outcome := Outcome{Intent: cmd.Intent, Envelope: env, Result: &result}
	outcome.Disposition = store.DispositionExecuted
	if !result.Success {
		outcome.Disposition = store.DispositionFailed
		if result.TerminalError != nil {
			outcome.Detail = result.TerminalError.Message
		}
		return o.finish(ctx, started, outcome,
			&domain.StageError{Stage: domain.StageExecution, Err: domain.ErrFallbackExhausted})
	}
	outcome.Detail = fmt.Sprintf("completed by %s", result.Model)
	return o.finish(ctx, started, outcome, nil)
}

// finish records the outcome in the audit store and metrics, then returns it.
func (o *Orchestrator) finish(ctx context.Context, started time.Time, outcome Outcome, err error) (Outcome, error) {
	duration := o.now().Sub(started)

	if o.metrics != nil {
		o.metrics.ObserveDelivery(outcome.Disposition, duration)
		if outcome.Result != nil {
			o.metrics.AddCost(outcome.Result.TotalCost)
			for _, attempt := range outcome.Result.Attempts {
				o.metrics.ObserveAttempt(attempt.Provider, string(attempt.Outcome), attempt.ErrorClass)
			}
		}
	}

	record := store.DeliveryRecord{
		DeliveryID:  outcome.Envelope.DeliveryID,
		ReceivedAt:  started,
		EventType:   outcome.Envelope.EventType,
		Action:      outcome.Envelope.Action,
		Repository:  outcome.Envelope.Repository.FullName,
		Sender:      outcome.Envelope.Sender.Login,
		Intent:      string(outcome.Intent),
		Disposition: outcome.Disposition,
		Detail:      outcome.Detail,
	}
	if outcome.Result != nil {
		record.TotalCost = outcome.Result.TotalCost
	}
	if record.DeliveryID != "" {
		if storeErr := o.audit.RecordDelivery(ctx, record); storeErr != nil {
			o.logger.Warn("failed to record delivery", zap.Error(storeErr))
		} else if outcome.Result != nil {
			// Attempts reference the delivery row, so they go in second.
			o.recordAttempts(ctx, record.DeliveryID, *outcome.Result)
		}
	}

	return outcome, err
}

// recordAttempts writes the execution trail for an attempted delivery.
func (o *Orchestrator) recordAttempts(ctx context.Context, deliveryID string, result domain.ExecutionResult) {
	if deliveryID == "" || len(result.Attempts) == 0 {
		return
	}
	records := make([]store.AttemptRecord, 0, len(result.Attempts))
	for i, attempt := range result.Attempts {
		records = append(records, store.AttemptRecord{
			AttemptID:  store.GenerateAttemptID(deliveryID, i),
			DeliveryID: deliveryID,
			Model:      attempt.Model,
			Provider:   attempt.Provider,
			StartedAt:  attempt.StartedAt,
			DurationMS: attempt.Duration.Milliseconds(),
			Outcome:    string(attempt.Outcome),
			ErrorClass: attempt.ErrorClass,
			Cost:       attempt.CostIncurred,
		})
	}
	if err := o.audit.RecordAttempts(ctx, deliveryID, records); err != nil {
		o.logger.Warn("failed to record attempts", zap.Error(err))
	}
}

// IsSkip reports whether err marks a delivery that was acknowledged and
// intentionally not processed.
func IsSkip(err error) bool {
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		return domain.IsSkip(stageErr)
	}
	return false
}
