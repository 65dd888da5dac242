// Package githubapi wraps the hosting platform's REST API behind the two
// narrow surfaces the service needs: permission lookups for the gate and
// comment posting for the presenter.
package githubapi

import (
	"context"
	"fmt"

	"github.com/google/go-github/v84/github"
	"go.uber.org/zap"

	"github.com/brandon/webhook-agent/internal/domain"
)

// Client is an authenticated platform API client.
type Client struct {
	gh     *github.Client
	logger *zap.Logger
}

// NewClient creates a client authenticated with a personal access or
// installation token.
func NewClient(token string, logger *zap.Logger) *Client {
	return NewFromGitHub(github.NewClient(nil).WithAuthToken(token), logger)
}

// NewFromGitHub wraps an existing platform client. Tests and enterprise
// deployments with custom base URLs come through here.
func NewFromGitHub(gh *github.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{gh: gh, logger: logger}
}

// PermissionLevel returns actor's permission on owner/repo: "admin",
// "maintain", "write", "triage", "read", or "none". The platform answers 404
// for users with no collaborator relationship at all; that is "none", not an
// error, so the gate can cache it like any other decision.
func (c *Client) PermissionLevel(ctx context.Context, owner, repo, actor string) (string, error) {
	level, resp, err := c.gh.Repositories.GetPermissionLevel(ctx, owner, repo, actor)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return "none", nil
		}
		return "", fmt.Errorf("get permission level for %s on %s/%s: %w", actor, owner, repo, err)
	}
	return level.GetPermission(), nil
}

// PostComment creates an issue or pull request comment.
func (c *Client) PostComment(ctx context.Context, repo domain.Repository, number int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	if _, _, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, comment); err != nil {
		return fmt.Errorf("post comment on %s#%d: %w", repo.FullName, number, err)
	}
	c.logger.Debug("posted comment",
		zap.String("repository", repo.FullName),
		zap.Int("number", number),
		zap.Int("bodyLength", len(body)))
	return nil
}
