package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/isp/internal/adapters/roster"
	service "github.com/okian/isp/internal/app"
	"github.com/okian/isp/internal/config"
	"github.com/okian/isp/internal/domain/pipeline"
	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
)

type scoreOptions struct {
	scalePath string
}

func newScoreCommand(g *globalOptions) *cobra.Command {
	opts := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score a CSV or Excel roster locally",
		Long: `Score a roster file with the same pipeline the server runs.

Without a classifier API key, locations are only DC-canonicalized and most
location values will be reported as invalid.

Examples:
  ispctl score applicants.csv
  ispctl score applicants.xlsx --scale custom-scale.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, g, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.scalePath, "scale", "", "JSON scale file to score with instead of the rubric default")
	return cmd
}

func runScore(cmd *cobra.Command, g *globalOptions, opts *scoreOptions, path string) error {
	if err := checkFormat(g.output); err != nil {
		return err
	}
	ctx := cmd.Context()

	cfg, err := loadConfig(ctx, cmd, g)
	if err != nil {
		return err
	}

	var scale *rubric.Scale
	if opts.scalePath != "" {
		if scale, err = readScale(opts.scalePath); err != nil {
			return err
		}
	}

	rows, err := readRoster(path)
	if err != nil {
		return err
	}

	engine, err := service.NewEngine(ctx, cfg, nil, logger.Named("ispctl"))
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	res, err := engine.Pipeline.Run(ctx, pipeline.Input{Records: rows, Scale: scale})
	if err != nil {
		return fmt.Errorf("failed to score %s: %w", filepath.Base(path), err)
	}
	env, err := toEnvelope(res)
	if err != nil {
		return err
	}
	return writeEnvelope(cmd.OutOrStdout(), g.output, env)
}

// loadConfig reads server configuration and points logs at stderr so they
// never mix with command output.
func loadConfig(ctx context.Context, cmd *cobra.Command, g *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if g.rubricPath != "" {
		cfg.RubricPath = g.rubricPath
	}
	if err := logger.InitWithFormat(cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readRoster(path string) ([]record.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() { _ = f.Close() }()
	return roster.Parse(filepath.Base(path), f)
}

func readScale(path string) (*rubric.Scale, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scale: %w", err)
	}
	var scale rubric.Scale
	if err := json.Unmarshal(b, &scale); err != nil {
		return nil, fmt.Errorf("failed to decode scale %s: %w", path, err)
	}
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	return &scale, nil
}
