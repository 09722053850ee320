package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/isp/internal/rubric"
)

type retierOptions struct {
	state     string
	tier      string
	points    float64
	scalePath string
}

func newRetierCommand(g *globalOptions) *cobra.Command {
	opts := &retierOptions{}
	cmd := &cobra.Command{
		Use:   "retier",
		Short: "Move a state to another cost-of-living tier",
		Long: `Move a state into a cost-of-living tier and print the resulting scale.

The state is removed from every other tier. Points default to the tier's
standard value (tier1=1, tier2=3, tier3=5). The JSON output can be passed
back to "score --scale".

Examples:
  ispctl retier --state Texas --tier 3
  ispctl retier --state Ohio --tier tier2 --points 2.5 --scale mine.json -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRetier(cmd, g, opts)
		},
	}
	cmd.Flags().StringVar(&opts.state, "state", "", "state token, for example Texas or DistrictOfColumbia")
	cmd.Flags().StringVar(&opts.tier, "tier", "", "target tier (1, 2, 3 or tier1..tier3)")
	cmd.Flags().Float64Var(&opts.points, "points", 0, "points for the state (default: the tier's default)")
	cmd.Flags().StringVar(&opts.scalePath, "scale", "", "JSON scale file to start from (default: rubric default)")
	_ = cmd.MarkFlagRequired("state")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func runRetier(cmd *cobra.Command, g *globalOptions, opts *retierOptions) error {
	if err := checkFormat(g.output); err != nil {
		return err
	}
	tier, err := rubric.ParseTier(opts.tier)
	if err != nil {
		return err
	}

	var scale rubric.Scale
	if opts.scalePath != "" {
		base, err := readScale(opts.scalePath)
		if err != nil {
			return err
		}
		scale = *base
	} else {
		schema, err := rubric.Load(cmd.Context(), g.rubricPath)
		if err != nil {
			return err
		}
		scale = schema.DefaultScale.Clone()
	}

	points := tier.DefaultPoints()
	if cmd.Flags().Changed("points") {
		points = opts.points
	}
	if err := scale.MoveState(strings.TrimSpace(opts.state), tier, points); err != nil {
		return err
	}
	if err := scale.Validate(); err != nil {
		return err
	}

	if g.output == formatJSON {
		return writeJSON(cmd.OutOrStdout(), scale)
	}
	return writeTiers(cmd, scale)
}

func writeTiers(cmd *cobra.Command, scale rubric.Scale) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIER\tSTATES")
	for _, t := range rubric.Tiers {
		m := scale.CostOfLiving.Tier(t)
		states := make([]string, 0, len(m))
		for s, p := range m {
			states = append(states, fmt.Sprintf("%s(%g)", s, p))
		}
		slices.Sort(states)
		fmt.Fprintf(tw, "%s\t%s\n", t, strings.Join(states, " "))
	}
	return tw.Flush()
}
