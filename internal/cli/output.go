package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/okian/isp/internal/domain/pipeline"
	"github.com/okian/isp/internal/rubric"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func checkFormat(f string) error {
	if f != formatTable && f != formatJSON {
		return fmt.Errorf("unknown output format %q (use table or json)", f)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// envelope is the scored result as decoded from JSON, used for both local
// and remote scoring so they print the same way.
type envelope struct {
	Data         []map[string]any `json:"data"`
	Warnings     []string         `json:"warnings"`
	TotalRecords int              `json:"total_records"`
	Columns      []string         `json:"columns"`
}

func toEnvelope(res *pipeline.Result) (envelope, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return envelope{}, err
	}
	return env, nil
}

var tableFields = []string{
	rubric.FieldName,
	rubric.FieldLocation,
	rubric.FieldHours,
	rubric.FieldNeedLevel,
	rubric.FieldPaidInternship,
	rubric.FieldInternshipType,
	rubric.FieldMonth,
}

func writeEnvelope(w io.Writer, format string, env envelope) error {
	if format == formatJSON {
		return writeJSON(w, env)
	}

	present := make(map[string]bool, len(env.Columns))
	for _, c := range env.Columns {
		present[c] = true
	}
	var cols []string
	for _, f := range tableFields {
		if present[f] {
			cols = append(cols, f)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := append([]string{"#"}, cols...)
	header = append(header, "SCORE", "BREAKDOWN")
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for i, rec := range env.Data {
		row := []string{fmt.Sprint(i + 1)}
		for _, c := range cols {
			row = append(row, cell(rec[c]))
		}
		row = append(row, cell(rec["score"]), breakdown(rec["score_breakdown"]))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d records\n", env.TotalRecords)
	for _, warn := range env.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}

func cell(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}

func breakdown(v any) string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, m[k])
	}
	return strings.Join(parts, " ")
}
