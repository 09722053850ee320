// Package roster turns uploaded spreadsheets and remote exports into raw
// applicant rows.
package roster

import (
	"encoding/csv"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/okian/isp/internal/domain/record"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// Extensions lists the accepted upload extensions.
var Extensions = []string{".csv", ".xlsx", ".xlsm"}

// Supported reports whether name has an accepted extension.
func Supported(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// Parse reads rows from r, choosing the format from name's extension.
func Parse(name string, r io.Reader) ([]record.Raw, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx", ".xlsm":
		return ParseXLSX(r)
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "roster: %q", name)
	}
}

// ParseCSV reads a header row followed by data rows. Short rows leave the
// missing cells out; fully blank rows are skipped.
func ParseCSV(r io.Reader) ([]record.Raw, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "roster: read csv")
	}
	return fromRows(rows)
}

// ParseXLSX reads the first sheet of a workbook the same way as ParseCSV.
func ParseXLSX(r io.Reader) ([]record.Raw, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "roster: open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, eris.Wrap(ErrEmptyRoster, "roster: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read sheet %q", sheets[0])
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) ([]record.Raw, error) {
	if len(rows) < 2 {
		return nil, eris.Wrap(ErrEmptyRoster, "roster")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	out := make([]record.Raw, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(record.Raw, len(header))
		for i, h := range header {
			if h == "" || i >= len(row) {
				continue
			}
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, eris.Wrap(ErrEmptyRoster, "roster")
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
