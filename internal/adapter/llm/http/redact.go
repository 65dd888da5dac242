package http

import "regexp"

// secretParams matches credential-bearing query parameters that could appear
// in URLs quoted by transport errors.
var secretParams = regexp.MustCompile(`(key|apiKey|api_key|token|access_token)=[^&"\s]+`)

// RedactURLSecrets scrubs credential query parameters from text before it
// reaches logs or terminal output. Providers here carry keys in headers, but
// upstream error messages can still quote URLs verbatim.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	return secretParams.ReplaceAllString(text, "$1=[REDACTED]")
}
