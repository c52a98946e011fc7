// Package dataset provides a small column-typed table and CSV ingestion,
// the bridge between raw records and the matrices and category slices the
// preprocessing package consumes.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/takara-ml/prepro/pkg/errors"
)

// ColumnType identifies the representation of a table column.
type ColumnType int

const (
	// Numeric columns hold float64 values with NaN for missing cells.
	Numeric ColumnType = iota
	// Categorical columns hold string categories.
	Categorical
	// Time columns hold timestamps.
	Time
)

// String returns the type name.
func (ct ColumnType) String() string {
	switch ct {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

type column struct {
	name    string
	ctype   ColumnType
	floats  []float64
	strings []string
	times   []time.Time
}

// Table is an ordered collection of equally sized, named, typed columns.
type Table struct {
	columns []column
	index   map[string]int
	nRows   int
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nRows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// ColumnType returns the type of the named column.
func (t *Table) ColumnType(name string) (ColumnType, error) {
	idx, ok := t.index[name]
	if !ok {
		return 0, errors.NewValueError("Table.ColumnType", fmt.Sprintf("no column named %q", name))
	}
	return t.columns[idx].ctype, nil
}

// checkLength enforces the row-count invariant across columns.
func (t *Table) checkLength(name string, n int) error {
	if _, exists := t.index[name]; exists {
		return errors.NewValueError("Table.Add", fmt.Sprintf("column %q already exists", name))
	}
	if len(t.columns) > 0 && n != t.nRows {
		return errors.NewDimensionError("Table.Add", t.nRows, n, 0)
	}
	return nil
}

// AddNumeric appends a numeric column. Missing cells are NaN.
func (t *Table) AddNumeric(name string, values []float64) error {
	if err := t.checkLength(name, len(values)); err != nil {
		return err
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, column{name: name, ctype: Numeric, floats: values})
	t.nRows = len(values)
	return nil
}

// AddCategorical appends a categorical column.
func (t *Table) AddCategorical(name string, values []string) error {
	if err := t.checkLength(name, len(values)); err != nil {
		return err
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, column{name: name, ctype: Categorical, strings: values})
	t.nRows = len(values)
	return nil
}

// AddTime appends a time column.
func (t *Table) AddTime(name string, values []time.Time) error {
	if err := t.checkLength(name, len(values)); err != nil {
		return err
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, column{name: name, ctype: Time, times: values})
	t.nRows = len(values)
	return nil
}

// Matrix assembles the named numeric columns into an n×k dense matrix in
// the given column order. With no names, all numeric columns are used in
// table order.
func (t *Table) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		for _, c := range t.columns {
			if c.ctype == Numeric {
				names = append(names, c.name)
			}
		}
	}
	if len(names) == 0 || t.nRows == 0 {
		return nil, errors.NewModelError("Table.Matrix", "empty data", errors.ErrEmptyData)
	}

	result := mat.NewDense(t.nRows, len(names), nil)
	for j, name := range names {
		idx, ok := t.index[name]
		if !ok {
			return nil, errors.NewValueError("Table.Matrix", fmt.Sprintf("no column named %q", name))
		}
		c := t.columns[idx]
		if c.ctype != Numeric {
			return nil, errors.NewValueError("Table.Matrix", fmt.Sprintf("column %q is %s, not numeric", name, c.ctype))
		}
		for i := 0; i < t.nRows; i++ {
			result.Set(i, j, c.floats[i])
		}
	}
	return result, nil
}

// Vector returns a single numeric column as an n×1 matrix, the shape
// estimators expect for targets.
func (t *Table) Vector(name string) (*mat.Dense, error) {
	return t.Matrix(name)
}

// Strings returns a categorical column's values.
func (t *Table) Strings(name string) ([]string, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, errors.NewValueError("Table.Strings", fmt.Sprintf("no column named %q", name))
	}
	c := t.columns[idx]
	if c.ctype != Categorical {
		return nil, errors.NewValueError("Table.Strings", fmt.Sprintf("column %q is %s, not categorical", name, c.ctype))
	}
	return c.strings, nil
}

// Categorical assembles the named categorical columns row-major, the shape
// the encoders consume.
func (t *Table) Categorical(names ...string) ([][]string, error) {
	if len(names) == 0 {
		for _, c := range t.columns {
			if c.ctype == Categorical {
				names = append(names, c.name)
			}
		}
	}
	if len(names) == 0 || t.nRows == 0 {
		return nil, errors.NewModelError("Table.Categorical", "empty data", errors.ErrEmptyData)
	}

	cols := make([][]string, len(names))
	for j, name := range names {
		values, err := t.Strings(name)
		if err != nil {
			return nil, err
		}
		cols[j] = values
	}

	rows := make([][]string, t.nRows)
	for i := 0; i < t.nRows; i++ {
		rows[i] = make([]string, len(names))
		for j := range names {
			rows[i][j] = cols[j][i]
		}
	}
	return rows, nil
}

// Times returns a time column's values.
func (t *Table) Times(name string) ([]time.Time, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, errors.NewValueError("Table.Times", fmt.Sprintf("no column named %q", name))
	}
	c := t.columns[idx]
	if c.ctype != Time {
		return nil, errors.NewValueError("Table.Times", fmt.Sprintf("column %q is %s, not time", name, c.ctype))
	}
	return c.times, nil
}

// DefaultMissingValues are the cell contents treated as missing by ReadCSV.
var DefaultMissingValues = []string{"", "NA", "NaN", "null"}

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	// TimeLayouts maps column names to time.Parse layouts. Columns listed
	// here are parsed as Time columns.
	TimeLayouts map[string]string

	// MissingValues are the cell contents treated as missing. Nil uses
	// DefaultMissingValues.
	MissingValues []string
}

// ReadCSV parses CSV data with a header row into a Table. Column types are
// sniffed: columns named in TimeLayouts become Time columns, columns whose
// every observed cell parses as a float become Numeric (missing cells turn
// into NaN), and everything else is Categorical. A column that parses only
// partially as numeric stays categorical and emits a DataConversionWarning.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "csv read failed")
	}
	if len(records) < 2 {
		return nil, errors.NewModelError("ReadCSV", "need a header row and at least one data row", errors.ErrEmptyData)
	}

	missing := opts.MissingValues
	if missing == nil {
		missing = DefaultMissingValues
	}
	missingSet := make(map[string]struct{}, len(missing))
	for _, m := range missing {
		missingSet[m] = struct{}{}
	}

	header := records[0]
	rows := records[1:]
	table := NewTable()

	cells := make([]string, len(rows))
	for j, name := range header {
		for i, row := range rows {
			cells[i] = row[j]
		}

		if layout, ok := opts.TimeLayouts[name]; ok {
			times := make([]time.Time, len(cells))
			for i, cell := range cells {
				parsed, err := time.Parse(layout, cell)
				if err != nil {
					return nil, errors.Wrapf(err, "column %q row %d", name, i)
				}
				times[i] = parsed
			}
			if err := table.AddTime(name, times); err != nil {
				return nil, err
			}
			continue
		}

		floats, numericCount, observed := sniffNumeric(cells, missingSet)
		switch {
		case observed > 0 && numericCount == observed:
			if err := table.AddNumeric(name, floats); err != nil {
				return nil, err
			}
		default:
			if numericCount > 0 {
				errors.Warn(errors.NewDataConversionWarning("string", "string",
					fmt.Sprintf("column %q is partially numeric (%d of %d observed cells), kept categorical", name, numericCount, observed)))
			}
			if err := table.AddCategorical(name, append([]string(nil), cells...)); err != nil {
				return nil, err
			}
		}
	}

	return table, nil
}

// sniffNumeric attempts to parse every observed cell as a float. It returns
// the parsed values (NaN for missing or unparseable), the count of cells
// that parsed, and the count of observed (non-missing) cells.
func sniffNumeric(cells []string, missingSet map[string]struct{}) ([]float64, int, int) {
	floats := make([]float64, len(cells))
	numericCount := 0
	observed := 0
	for i, cell := range cells {
		if _, isMissing := missingSet[cell]; isMissing {
			floats[i] = math.NaN()
			continue
		}
		observed++
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			floats[i] = math.NaN()
			continue
		}
		floats[i] = v
		numericCount++
	}
	return floats, numericCount, observed
}
