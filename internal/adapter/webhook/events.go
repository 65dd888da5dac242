package webhook

import (
	"fmt"

	"github.com/google/go-github/v84/github"

	"github.com/brandon/webhook-agent/internal/domain"
)

// supportedActions is the allow-list of (event, action) pairs the service
// reacts to. Anything else is acknowledged and dropped at the ingress.
var supportedActions = map[string]map[string]bool{
	"issues":                      {"opened": true, "edited": true},
	"issue_comment":               {"created": true},
	"pull_request":                {"opened": true, "edited": true, "synchronize": true},
	"pull_request_review_comment": {"created": true},
}

// buildEnvelope maps one typed platform event to the internal envelope.
func buildEnvelope(eventType string, parsed any) (domain.WebhookEnvelope, error) {
	switch event := parsed.(type) {
	case *github.IssuesEvent:
		env := baseEnvelope(eventType, event.GetAction(), event.GetRepo(), event.GetSender())
		env.IssueNumber = event.GetIssue().GetNumber()
		env.IsPullRequest = event.GetIssue().IsPullRequest()
		env.Title = event.GetIssue().GetTitle()
		env.Body = event.GetIssue().GetBody()
		return checkAction(env)

	case *github.IssueCommentEvent:
		env := baseEnvelope(eventType, event.GetAction(), event.GetRepo(), event.GetSender())
		env.IssueNumber = event.GetIssue().GetNumber()
		env.IsPullRequest = event.GetIssue().IsPullRequest()
		env.Title = event.GetIssue().GetTitle()
		env.Body = event.GetIssue().GetBody()
		env.CommentBody = event.GetComment().GetBody()
		// Comment events report the comment author, not the issue author.
		env.Sender = actorFrom(event.GetComment().GetUser())
		return checkAction(env)

	case *github.PullRequestEvent:
		env := baseEnvelope(eventType, event.GetAction(), event.GetRepo(), event.GetSender())
		env.IssueNumber = event.GetPullRequest().GetNumber()
		env.IsPullRequest = true
		env.Title = event.GetPullRequest().GetTitle()
		env.Body = event.GetPullRequest().GetBody()
		return checkAction(env)

	case *github.PullRequestReviewCommentEvent:
		env := baseEnvelope(eventType, event.GetAction(), event.GetRepo(), event.GetSender())
		env.IssueNumber = event.GetPullRequest().GetNumber()
		env.IsPullRequest = true
		env.Title = event.GetPullRequest().GetTitle()
		env.Body = event.GetPullRequest().GetBody()
		env.CommentBody = event.GetComment().GetBody()
		env.DiffHunk = event.GetComment().GetDiffHunk()
		env.Sender = actorFrom(event.GetComment().GetUser())
		return checkAction(env)

	default:
		return domain.WebhookEnvelope{}, fmt.Errorf("event %q: %w", eventType, domain.ErrUnsupportedEvent)
	}
}

func baseEnvelope(eventType, action string, repo *github.Repository, sender *github.User) domain.WebhookEnvelope {
	return domain.WebhookEnvelope{
		EventType: eventType,
		Action:    action,
		Repository: domain.Repository{
			Owner:         repo.GetOwner().GetLogin(),
			Name:          repo.GetName(),
			FullName:      repo.GetFullName(),
			Private:       repo.GetPrivate(),
			DefaultBranch: repo.GetDefaultBranch(),
		},
		Sender: actorFrom(sender),
	}
}

func actorFrom(user *github.User) domain.Actor {
	return domain.Actor{
		Login: user.GetLogin(),
		IsBot: user.GetType() == "Bot",
	}
}

func checkAction(env domain.WebhookEnvelope) (domain.WebhookEnvelope, error) {
	if !supportedActions[env.EventType][env.Action] {
		return domain.WebhookEnvelope{}, fmt.Errorf("event %q action %q: %w", env.EventType, env.Action, domain.ErrUnsupportedEvent)
	}
	return env, nil
}
