// Package cli implements the ispctl command line tool.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// SetVersionInfo sets version information from build flags.
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

type globalOptions struct {
	output     string
	rubricPath string
}

// NewRootCommand builds the ispctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "ispctl",
		Short: "Score internship applicant rosters against the rubric",
		Long: `ispctl scores applicant rosters offline, edits cost-of-living tiers,
generates synthetic rosters and submits rosters to a running server.

Classifier and cache settings are read from ISP_* environment variables and
the file named by ISP_CONFIG, the same as the server.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "output format (table, json)")
	root.PersistentFlags().StringVar(&opts.rubricPath, "rubric", "", "rubric YAML file (default: embedded rubric)")

	root.AddCommand(
		newScoreCommand(opts),
		newRetierCommand(opts),
		newGenerateCommand(),
		newSubmitCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ispctl %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", buildTime)
		},
	}
}
