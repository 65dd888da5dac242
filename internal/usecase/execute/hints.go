package execute

import llmhttp "github.com/brandon/webhook-agent/internal/adapter/llm/http"

// HintFor returns operator guidance for the terminal failure class. The hint
// is surfaced verbatim in the posted failure comment, so it speaks to whoever
// runs the deployment rather than to the commenter.
func HintFor(class llmhttp.ErrorClass) string {
	switch class {
	case llmhttp.ClassRateLimit:
		return "Every configured model is rate limited. Wait for the quota window to reset, or add a fallback model on a different provider."
	case llmhttp.ClassAuth:
		return "Authentication failed. Check that the provider API key environment variables are set, current, and not truncated."
	case llmhttp.ClassModelUnavailable:
		return "The requested model was not found. Check the model identifiers in the configuration against the provider's published names."
	case llmhttp.ClassContextLength:
		return "The assembled context exceeds the model's window even after truncation. Lower the context size limit or choose a model with a larger window."
	case llmhttp.ClassServer:
		return "The provider reported server-side errors. Check the provider's status page; the request can be retried later."
	case llmhttp.ClassTimeout:
		return "Provider calls timed out. Check network reachability from the host, or raise the request timeout."
	case llmhttp.ClassContentFilter:
		return "The provider's safety filter blocked the response. Rephrase the request, or route it to a provider with different filtering."
	default:
		return "Check the service logs for the underlying provider error."
	}
}
