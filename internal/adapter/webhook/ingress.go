// Package webhook authenticates and parses inbound hosting-platform
// deliveries. Everything past this boundary works with the typed envelope;
// raw payloads and signature headers never travel further into the service.
package webhook

import (
	"fmt"
	"net/http"

	"github.com/google/go-github/v84/github"
	"go.uber.org/zap"

	"github.com/brandon/webhook-agent/internal/domain"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventHeader     = "X-GitHub-Event"
	deliveryHeader  = "X-GitHub-Delivery"
)

// Ingress validates delivery signatures and produces envelopes.
type Ingress struct {
	secret []byte
	logger *zap.Logger
}

// NewIngress creates an ingress validating against secret.
func NewIngress(secret []byte, logger *zap.Logger) *Ingress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingress{secret: secret, logger: logger}
}

// Ingest authenticates one delivery and parses it into an envelope.
// The signature is verified over the exact raw body before any parsing; a
// missing or mismatched signature is ErrSignatureInvalid, never a parse error,
// so unauthenticated payloads never reach the parser.
func (i *Ingress) Ingest(body []byte, header http.Header) (domain.WebhookEnvelope, error) {
	signature := header.Get(signatureHeader)
	if signature == "" {
		return domain.WebhookEnvelope{}, fmt.Errorf("missing %s header: %w", signatureHeader, domain.ErrSignatureInvalid)
	}
	if err := github.ValidateSignature(signature, body, i.secret); err != nil {
		i.logger.Warn("rejected delivery with bad signature",
			zap.String("deliveryId", header.Get(deliveryHeader)))
		return domain.WebhookEnvelope{}, fmt.Errorf("%v: %w", err, domain.ErrSignatureInvalid)
	}

	eventType := header.Get(eventHeader)
	if _, ok := supportedActions[eventType]; !ok {
		return domain.WebhookEnvelope{}, fmt.Errorf("event %q: %w", eventType, domain.ErrUnsupportedEvent)
	}

	parsed, err := github.ParseWebHook(eventType, body)
	if err != nil {
		return domain.WebhookEnvelope{}, fmt.Errorf("%v: %w", err, domain.ErrMalformedPayload)
	}

	env, err := buildEnvelope(eventType, parsed)
	if err != nil {
		return domain.WebhookEnvelope{}, err
	}
	env.DeliveryID = header.Get(deliveryHeader)
	env.RawPayload = body

	i.logger.Debug("accepted delivery",
		zap.String("deliveryId", env.DeliveryID),
		zap.String("event", env.EventType),
		zap.String("action", env.Action),
		zap.String("repository", env.Repository.FullName))
	return env, nil
}
