package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/okian/isp/internal/rubric"
)

type generateOptions struct {
	rows int
	out  string
	seed uint64
}

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Katherine", "Linus", "Barbara", "Dennis", "Frances", "Ken", "Radia"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Johnson", "Torvalds", "Liskov", "Ritchie", "Allen", "Thompson", "Perlman"}
	places     = []string{
		"Washington, DC", "D.C.", "district of columbia", "Austin, TX", "New York, NY",
		"San Francisco, CA", "Seattle", "Boise, Idaho", "Columbus, OH", "Remote", "London, UK",
	}
	hours      = []string{"40", "20 hrs/week", "part-time", "full time", "35", "Less than 30 Hours"}
	needLevels = []string{"Very High Need", "High Need", "Moderate Need", "Low Need", "No Need", "high"}
	paidValues = []string{"Paid", "Unpaid", "paid", "Stipend"}
	types      = []string{"In-Person", "Hybrid", "Virtual", "remote"}
)

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic applicant roster",
		Long: `Generate a roster with the rubric's headers and a realistic mix of
clean and messy values. The same seed always yields the same roster.

The format follows the --out extension (.csv or .xlsx); without --out a CSV
is written to stdout.

Examples:
  ispctl generate --rows 50 > roster.csv
  ispctl generate --rows 200 --seed 7 --out roster.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.rows, "rows", 25, "number of applicants")
	cmd.Flags().StringVar(&opts.out, "out", "", "output file (.csv or .xlsx)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	if opts.rows <= 0 {
		return fmt.Errorf("rows must be positive, got %d", opts.rows)
	}
	schema, err := rubric.Default()
	if err != nil {
		return err
	}
	table, err := syntheticRoster(schema, opts.rows, opts.seed)
	if err != nil {
		return err
	}

	if opts.out == "" {
		return writeCSV(cmd.OutOrStdout(), table)
	}
	switch strings.ToLower(filepath.Ext(opts.out)) {
	case ".csv":
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		if err := writeCSV(f, table); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	case ".xlsx":
		if err := writeXLSX(opts.out, table); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output extension %q (use .csv or .xlsx)", filepath.Ext(opts.out))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d applicants to %s\n", opts.rows, opts.out)
	return nil
}

// syntheticRoster returns a header row followed by n applicant rows.
func syntheticRoster(schema *rubric.Schema, n int, seed uint64) ([][]string, error) {
	src := rand.NewChaCha8(seedBytes(seed))
	rng := rand.New(src)
	start := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	header := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		header[i] = c.Header
	}
	table := [][]string{header}

	for range n {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return nil, err
		}
		first, last := pick(rng, firstNames), pick(rng, lastNames)
		row := make([]string, len(schema.Columns))
		for i, c := range schema.Columns {
			switch c.Field {
			case rubric.FieldName:
				row[i] = first + " " + last
			case rubric.FieldEmail:
				row[i] = fmt.Sprintf("%s.%s.%s@example.edu", strings.ToLower(first), strings.ToLower(last), id.String()[:8])
			case rubric.FieldLocation:
				row[i] = pick(rng, places)
			case rubric.FieldHours:
				row[i] = pick(rng, hours)
			case rubric.FieldNeedLevel:
				row[i] = pick(rng, needLevels)
			case rubric.FieldPaidInternship:
				row[i] = pick(rng, paidValues)
			case rubric.FieldInternshipType:
				row[i] = pick(rng, types)
			case rubric.FieldMonth:
				row[i] = start.AddDate(0, 0, rng.IntN(120)).Format(time.DateOnly)
			}
		}
		// Leave some cells blank the way hand-kept rosters do.
		if rng.IntN(10) == 0 {
			row[rng.IntN(len(row))] = ""
		}
		table = append(table, row)
	}
	return table, nil
}

func seedBytes(seed uint64) [32]byte {
	var b [32]byte
	for i := range 8 {
		b[i] = byte(seed >> (8 * i))
	}
	return b
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.IntN(len(from))]
}

func writeCSV(w io.Writer, table [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(table); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func writeXLSX(path string, table [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
