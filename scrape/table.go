package scrape

import (
	"encoding/csv"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

// ErrorColumn is the reserved column that carries the failure message for
// jobs that did not complete.  Successful rows leave it empty.
const ErrorColumn = "error"

// Row maps column names to cell values.  Missing columns render as empty
// cells.
type Row map[string]string

// Table is an ordered collection of rows sharing one column schema.  Rows
// keep their append order, which the engine guarantees to be submission
// order.  Declared columns render first; columns discovered in appended
// rows follow in sorted order (services like ADMETlab define their result
// schema only in the response), and the ErrorColumn always renders last.
// Table is not safe for concurrent mutation.
type Table struct {
	columns []string
	seen    map[string]bool
	rows    []Row
}

// NewTable creates an empty table with the declared columns.
func NewTable(columns ...string) *Table {
	t := &Table{seen: map[string]bool{ErrorColumn: true}}
	for _, c := range columns {
		if !t.seen[c] {
			t.columns = append(t.columns, c)
			t.seen[c] = true
		}
	}
	return t
}

// Columns returns the schema in render order.
func (t *Table) Columns() []string {
	out := make([]string, 0, len(t.columns)+1)
	out = append(out, t.columns...)
	return append(out, ErrorColumn)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Append adds a row, extending the schema with any columns not seen
// before.  New columns are added in sorted order to keep the render order
// deterministic.
func (t *Table) Append(row Row) {
	var discovered []string
	for col := range row {
		if !t.seen[col] {
			discovered = append(discovered, col)
			t.seen[col] = true
		}
	}
	sort.Strings(discovered)
	t.columns = append(t.columns, discovered...)
	t.rows = append(t.rows, row)
}

// Row returns the row at index i.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns all rows in order.
func (t *Table) Rows() []Row { return t.rows }

// FailedRows returns the rows whose ErrorColumn is set.
func (t *Table) FailedRows() []Row {
	var out []Row
	for _, r := range t.rows {
		if r[ErrorColumn] != "" {
			out = append(out, r)
		}
	}
	return out
}

// Records renders the table as a header row plus one string slice per row,
// cells ordered by the schema.
func (t *Table) Records() [][]string {
	cols := t.Columns()
	records := make([][]string, 0, len(t.rows)+1)
	records = append(records, cols)
	for _, row := range t.rows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = row[col]
		}
		records = append(records, cells)
	}
	return records
}

// ExportCSV writes the table to path as UTF-8 CSV with a header row.
func (t *Table) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to create CSV file").WithDetail(path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(t.Records()); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to write CSV rows").WithDetail(path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to flush CSV writer").WithDetail(path)
	}
	return nil
}

// defaultSheet is the sheet name used for spreadsheet export.
const defaultSheet = "Sheet1"

// ExportXLSX writes the table to path as a single-sheet workbook with a
// header row.
func (t *Table) ExportXLSX(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, record := range t.Records() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to compute cell coordinate")
		}
		cells := make([]interface{}, len(record))
		for j, v := range record {
			cells[j] = v
		}
		if err := f.SetSheetRow(defaultSheet, cell, &cells); err != nil {
			return errors.Wrap(err, errors.CodeIO, "failed to set sheet row").WithDetail(path)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to save workbook").WithDetail(path)
	}
	return nil
}

// Export dispatches on the file extension, .xlsx or .csv.
func (t *Table) Export(path string) error {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
		return t.ExportXLSX(path)
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		return t.ExportCSV(path)
	default:
		return errors.New(errors.CodeUnsupportedFormat,
			"unsupported export extension, want .xlsx or .csv").WithDetail(path)
	}
}

// ReadCSV loads a table previously written by ExportCSV.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to open CSV file").WithDetail(path)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "failed to parse CSV file").WithDetail(path)
	}
	return tableFromRecords(records)
}

// ReadXLSX loads the first sheet of a workbook written by ExportXLSX.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeIO, "failed to open workbook").WithDetail(path)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "failed to read sheet rows").WithDetail(path)
	}
	return tableFromRecords(rows)
}

func tableFromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.Parse("table has no header row")
	}
	t := NewTable(records[0]...)
	for _, record := range records[1:] {
		row := Row{}
		for i, col := range records[0] {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		t.Append(row)
	}
	return t, nil
}
