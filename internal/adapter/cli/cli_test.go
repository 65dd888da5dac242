package cli_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/webhook-agent/internal/adapter/cli"
	"github.com/brandon/webhook-agent/internal/domain"
)

type stubServer struct {
	runs int
	err  error
}

func (s *stubServer) Run(_ context.Context) error {
	s.runs++
	return s.err
}

type stubRouter struct {
	descriptors map[string]domain.ProviderDescriptor
	credentials map[string]error
}

func (s *stubRouter) Resolve(model string) (domain.ProviderDescriptor, error) {
	descriptor, ok := s.descriptors[model]
	if !ok {
		return domain.ProviderDescriptor{}, errors.New("no provider configured")
	}
	return descriptor, nil
}

func (s *stubRouter) ValidateCredential(d domain.ProviderDescriptor) error {
	return s.credentials[d.Provider]
}

func execute(t *testing.T, deps cli.Dependencies, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	deps.Args = cli.Arguments{OutWriter: &out, ErrWriter: &errOut}
	root := cli.NewRootCommand(deps)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, _, err := execute(t, cli.Dependencies{Version: "v1.2.3"}, "--version")

	assert.ErrorIs(t, err, cli.ErrVersionRequested)
	assert.Contains(t, out, "v1.2.3")
}

func TestVersionDefaultsWhenUnset(t *testing.T) {
	out, _, err := execute(t, cli.Dependencies{}, "--version")

	assert.ErrorIs(t, err, cli.ErrVersionRequested)
	assert.Contains(t, out, "v0.0.0")
}

func TestRootShowsHelp(t *testing.T) {
	out, _, err := execute(t, cli.Dependencies{})

	require.NoError(t, err)
	assert.Contains(t, out, "serve")
	assert.Contains(t, out, "check")
}

func TestServeRunsServer(t *testing.T) {
	server := &stubServer{}

	_, _, err := execute(t, cli.Dependencies{Server: server}, "serve")

	require.NoError(t, err)
	assert.Equal(t, 1, server.runs)
}

func TestServePropagatesServerError(t *testing.T) {
	server := &stubServer{err: errors.New("listen tcp: address in use")}

	_, _, err := execute(t, cli.Dependencies{Server: server}, "serve")

	assert.ErrorContains(t, err, "address in use")
}

func TestServeWithoutServer(t *testing.T) {
	_, _, err := execute(t, cli.Dependencies{}, "serve")
	assert.ErrorContains(t, err, "not configured")
}

func TestCheckPrintsRoutingTable(t *testing.T) {
	router := &stubRouter{
		descriptors: map[string]domain.ProviderDescriptor{
			"claude-sonnet-4-5": {Provider: "anthropic", CredentialEnvName: "ANTHROPIC_API_KEY"},
			"gpt-5":             {Provider: "openai", CredentialEnvName: "OPENAI_API_KEY"},
		},
		credentials: map[string]error{
			"openai": errors.New("openai (OPENAI_API_KEY): credential missing"),
		},
	}

	out, _, err := execute(t, cli.Dependencies{
		Router: router,
		Models: []string{"claude-sonnet-4-5", "gpt-5"},
	}, "check")

	require.NoError(t, err)
	assert.Contains(t, out, "anthropic")
	assert.Contains(t, out, "ANTHROPIC_API_KEY")
	assert.Contains(t, out, "credential missing")
	assert.Contains(t, out, "1 of 2 models usable")
}

func TestCheckFailsWhenNothingUsable(t *testing.T) {
	router := &stubRouter{
		descriptors: map[string]domain.ProviderDescriptor{
			"gpt-5": {Provider: "openai", CredentialEnvName: "OPENAI_API_KEY"},
		},
		credentials: map[string]error{
			"openai": errors.New("credential missing"),
		},
	}

	_, _, err := execute(t, cli.Dependencies{Router: router, Models: []string{"gpt-5"}}, "check")

	assert.ErrorContains(t, err, "no usable model")
}

func TestCheckReportsUnroutableModel(t *testing.T) {
	router := &stubRouter{
		descriptors: map[string]domain.ProviderDescriptor{
			"claude-sonnet-4-5": {Provider: "anthropic", CredentialEnvName: "ANTHROPIC_API_KEY"},
		},
	}

	out, _, err := execute(t, cli.Dependencies{
		Router: router,
		Models: []string{"claude-sonnet-4-5", "unknown-model"},
	}, "check")

	require.NoError(t, err)
	assert.Contains(t, out, "no provider configured")
	assert.Contains(t, out, "1 of 2 models usable")
}

func TestCheckWithoutModels(t *testing.T) {
	_, _, err := execute(t, cli.Dependencies{Router: &stubRouter{}}, "check")
	assert.ErrorContains(t, err, "no models configured")
}
