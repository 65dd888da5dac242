package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brandon/webhook-agent/internal/domain"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Server defines the dependency required to run the serve command.
type Server interface {
	Run(ctx context.Context) error
}

// ModelRouter defines the dependency required to run the check command.
type ModelRouter interface {
	Resolve(model string) (domain.ProviderDescriptor, error)
	ValidateCredential(d domain.ProviderDescriptor) error
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Server  Server
	Router  ModelRouter
	Models  []string // configured model chain, primary first
	Args    Arguments
	Version string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "agentd",
		Short: "Webhook-driven software engineering agent",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(serveCommand(deps.Server))
	root.AddCommand(checkCommand(deps.Router, deps.Models))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func serveCommand(server Server) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook listener until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == nil {
				return fmt.Errorf("server is not configured")
			}
			return server.Run(cmd.Context())
		},
	}
}

// checkCommand resolves every configured model and validates its provider
// credential, so misconfiguration surfaces before the first delivery arrives.
func checkCommand(router ModelRouter, models []string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate provider credentials and print the model routing table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if router == nil {
				return fmt.Errorf("router is not configured")
			}
			if len(models) == 0 {
				return fmt.Errorf("no models configured")
			}

			usable := 0
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "MODEL\tPROVIDER\tCREDENTIAL\tSTATUS")
			for _, model := range models {
				descriptor, err := router.Resolve(model)
				if err != nil {
					_, _ = fmt.Fprintf(tw, "%s\t-\t-\t%v\n", model, err)
					continue
				}
				status := "ok"
				if err := router.ValidateCredential(descriptor); err != nil {
					status = err.Error()
				} else {
					usable++
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", model, descriptor.Provider, descriptor.CredentialEnvName, status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if usable == 0 {
				return fmt.Errorf("no usable model: every credential check failed")
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d models usable\n", usable, len(models))
			return nil
		},
	}
}
