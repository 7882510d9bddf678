package features

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/tdaseries/internal/fsutil"
	"github.com/banshee-data/tdaseries/internal/tda/pointcloud"
)

var (
	// ErrMalformedRow indicates a table line with too few fields or a field
	// that does not parse.
	ErrMalformedRow = errors.New("features: malformed row")

	// ErrRaggedTable indicates rows with differing coordinate counts.
	ErrRaggedTable = errors.New("features: rows differ in dimension")
)

// Row is the feature vector of one window.
type Row struct {
	Index  int
	Coords []float64
	Norm   float64
	Label  int
}

// Failed reports whether the row is a placeholder for a window whose norm
// could not be computed.
func (r Row) Failed() bool { return math.IsNaN(r.Norm) }

// Table is an ordered set of rows, one per window.
type Table []Row

// Assemble builds the row of window index from its last point, norm and
// label. The coordinates are copied.
func Assemble(index int, last pointcloud.Point, norm float64, label int) Row {
	return Row{Index: index, Coords: last.Clone(), Norm: norm, Label: label}
}

// Norms returns the norm column.
func (t Table) Norms() []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = r.Norm
	}
	return out
}

// Labels returns the label column.
func (t Table) Labels() []int {
	out := make([]int, len(t))
	for i, r := range t {
		out[i] = r.Label
	}
	return out
}

// Encode writes one line per row: the coordinates, the norm and the label.
// Floats use the shortest representation that parses back exactly.
func Encode(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	var sb strings.Builder
	for _, r := range t {
		sb.Reset()
		for _, c := range r.Coords {
			sb.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(r.Norm, 'g', -1, 64))
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(r.Label))
		sb.WriteByte('\n')
		if _, err := bw.WriteString(sb.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write creates or overwrites path with the encoded table.
func Write(fsys fsutil.FileSystem, path string, t Table) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create training file: %w", err)
	}
	if err := Encode(f, t); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// Decode parses a table written by Encode. Row indices are the zero-based
// line numbers of non-empty lines.
func Decode(r io.Reader) (Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var t Table
	dim := -1
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: %d fields: %w", line, len(fields), ErrMalformedRow)
		}
		if dim < 0 {
			dim = len(fields) - 2
		} else if len(fields)-2 != dim {
			return nil, fmt.Errorf("line %d: %d coordinates, want %d: %w", line, len(fields)-2, dim, ErrRaggedTable)
		}

		row := Row{Index: len(t), Coords: make([]float64, dim)}
		for j := 0; j < dim; j++ {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: coordinate %q: %w", line, fields[j], ErrMalformedRow)
			}
			row.Coords[j] = v
		}
		norm, err := strconv.ParseFloat(fields[dim], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: norm %q: %w", line, fields[dim], ErrMalformedRow)
		}
		row.Norm = norm
		label, err := strconv.ParseFloat(fields[dim+1], 64)
		if err != nil || (label != 0 && label != 1) {
			return nil, fmt.Errorf("line %d: label %q: %w", line, fields[dim+1], ErrMalformedRow)
		}
		row.Label = int(label)
		t = append(t, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Read loads a table written by Write.
func Read(fsys fsutil.FileSystem, path string) (Table, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training file: %w", err)
	}
	defer f.Close()

	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
