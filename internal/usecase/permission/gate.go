// Package permission decides whether a repository and actor may trigger an
// operation. Decisions from the hosting platform are cached with a TTL to
// bound remote-call volume under bursty traffic; a cached "allowed" is served
// until expiry even if permissions were revoked in the interim. That
// staleness is an accepted availability tradeoff.
package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/brandon/webhook-agent/internal/cache"
	"github.com/brandon/webhook-agent/internal/domain"
)

const (
	// DefaultTTL bounds how long a definite decision is served from cache.
	DefaultTTL = 5 * time.Minute

	// DefaultErrorTTL caches "cannot verify" denials briefly, so a platform
	// blip does not deny for the full decision window.
	DefaultErrorTTL = 30 * time.Second

	cacheSize = 1024
)

// Checker answers live permission questions against the hosting platform.
type Checker interface {
	// PermissionLevel returns the actor's permission on the repository:
	// one of "admin", "maintain", "write", "triage", "read", or "none".
	PermissionLevel(ctx context.Context, owner, repo, actor string) (string, error)
}

// Gate authorizes (repository, actor, operation) triples.
type Gate struct {
	checker  Checker
	cache    *cache.TTL[string, domain.PermissionDecision]
	ttl      time.Duration
	errorTTL time.Duration
	now      func() time.Time
}

// NewGate creates a gate over checker with the default TTLs.
func NewGate(checker Checker) (*Gate, error) {
	decisions, err := cache.NewTTL[string, domain.PermissionDecision](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Gate{
		checker:  checker,
		cache:    decisions,
		ttl:      DefaultTTL,
		errorTTL: DefaultErrorTTL,
		now:      time.Now,
	}, nil
}

// SetTTLs overrides the decision TTLs.
func (g *Gate) SetTTLs(ttl, errorTTL time.Duration) {
	g.ttl = ttl
	g.errorTTL = errorTTL
}

// SetClock overrides the time source (for testing). The decision cache keeps
// its own clock; tests advance both through this method.
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
	g.cache.SetClock(now)
}

// Authorize decides whether actor may run operation against repository. It
// never returns an error: a failed or unreachable remote check is a denial
// with a reason, because "cannot verify" must mean "deny".
func (g *Gate) Authorize(ctx context.Context, repo domain.Repository, actor domain.Actor, operation domain.Operation) domain.PermissionDecision {
	key := fmt.Sprintf("%s|%s|%s", repo.FullName, actor.Login, operation)

	// Read-class operations on public repositories need no remote call.
	if !repo.Private && operation == domain.OperationRead {
		return domain.PermissionDecision{
			SubjectKey: key,
			Allowed:    true,
			ExpiresAt:  g.now().Add(g.ttl),
		}
	}

	decision, err := g.cache.GetOrCompute(key, func() (domain.PermissionDecision, time.Duration, error) {
		return g.check(ctx, key, repo, actor, operation)
	})
	if err != nil {
		// check folds failures into denials, so this branch is unreachable;
		// deny anyway rather than trusting that invariant.
		return domain.PermissionDecision{SubjectKey: key, Allowed: false, Reason: err.Error(), ExpiresAt: g.now()}
	}
	return decision
}

// check performs the live platform lookup and maps it to a decision plus the
// TTL it should be cached for.
func (g *Gate) check(ctx context.Context, key string, repo domain.Repository, actor domain.Actor, operation domain.Operation) (domain.PermissionDecision, time.Duration, error) {
	level, err := g.checker.PermissionLevel(ctx, repo.Owner, repo.Name, actor.Login)
	if err != nil {
		return domain.PermissionDecision{
			SubjectKey: key,
			Allowed:    false,
			Reason:     fmt.Sprintf("cannot verify permission: %v", err),
			ExpiresAt:  g.now().Add(g.errorTTL),
		}, g.errorTTL, nil
	}

	allowed := levelPermits(level, operation)
	decision := domain.PermissionDecision{
		SubjectKey: key,
		Allowed:    allowed,
		ExpiresAt:  g.now().Add(g.ttl),
	}
	if !allowed {
		decision.Reason = fmt.Sprintf("permission level %q does not permit %s operations", level, operation)
	}
	return decision, g.ttl, nil
}

// levelPermits maps platform permission levels to operation classes. Write
// operations need push access; read operations on private repositories need
// any explicit access at all.
func levelPermits(level string, operation domain.Operation) bool {
	switch operation {
	case domain.OperationWrite:
		return level == "admin" || level == "maintain" || level == "write"
	case domain.OperationRead:
		return level != "none" && level != ""
	default:
		return false
	}
}
