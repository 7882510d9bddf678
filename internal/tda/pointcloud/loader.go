package pointcloud

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/tdaseries/internal/fsutil"
)

var (
	// ErrDimensionMismatch indicates a record whose coordinate count differs
	// from the dimension fixed by the header or the first record.
	ErrDimensionMismatch = errors.New("pointcloud: inconsistent point dimension")

	// ErrBadNumber indicates a coordinate that is not a real number.
	ErrBadNumber = errors.New("pointcloud: invalid coordinate")

	// ErrBadHeader indicates a malformed OFF header.
	ErrBadHeader = errors.New("pointcloud: invalid OFF header")

	// ErrTruncated indicates an OFF file declaring more points than it holds.
	ErrTruncated = errors.New("pointcloud: fewer points than declared")
)

// maxLineBytes bounds a single record; high-dimensional embeddings can
// produce long lines.
const maxLineBytes = 4 * 1024 * 1024

// Load reads a point file through fsys. See Decode for the accepted format.
func Load(fsys fsutil.FileSystem, path string) (Cloud, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open point file: %w", err)
	}
	defer f.Close()

	cloud, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cloud, nil
}

type record struct {
	line   int
	fields []string
}

// Decode parses a point set. Two layouts are accepted:
//
//   - plain: one point per line, whitespace-separated coordinates;
//   - OFF: an "OFF" (3-d) or "nOFF <dim>" header, then
//     "<points> <faces> <edges>", then the points. Face records are ignored.
//
// '#' starts a comment and blank lines are skipped in both layouts.
func Decode(r io.Reader) (Cloud, error) {
	records, err := scanRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return Cloud{}, nil
	}

	dim, expect, next, err := parseHeader(records)
	if err != nil {
		return nil, err
	}

	capHint := len(records) - next
	if expect >= 0 && expect < capHint {
		capHint = expect
	}
	cloud := make(Cloud, 0, capHint)
	for _, rec := range records[next:] {
		if expect >= 0 && len(cloud) == expect {
			break
		}
		if dim == 0 {
			dim = len(rec.fields)
		}
		if len(rec.fields) != dim {
			return nil, fmt.Errorf("line %d: got %d coordinates, want %d: %w",
				rec.line, len(rec.fields), dim, ErrDimensionMismatch)
		}
		p := make(Point, dim)
		for j, tok := range rec.fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %q: %w", rec.line, tok, ErrBadNumber)
			}
			p[j] = v
		}
		cloud = append(cloud, p)
	}

	if expect >= 0 && len(cloud) < expect {
		return nil, fmt.Errorf("got %d of %d points: %w", len(cloud), expect, ErrTruncated)
	}
	return cloud, nil
}

func scanRecords(r io.Reader) ([]record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var records []record
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		records = append(records, record{line: lineNo, fields: fields})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read point file: %w", err)
	}
	return records, nil
}

// parseHeader detects an OFF header. It returns the declared dimension
// (0 when unknown), the declared point count (-1 when absent) and the index
// of the first point record.
func parseHeader(records []record) (dim, expect, next int, err error) {
	keyword := records[0].fields[0]
	if keyword != "OFF" && keyword != "nOFF" {
		return 0, -1, 0, nil
	}

	// The header is a token stream that may wrap across lines.
	var tokens []string
	next = 0
	take := func() (string, bool) {
		for len(tokens) == 0 {
			if next >= len(records) {
				return "", false
			}
			tokens = records[next].fields
			next++
		}
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, true
	}
	takeInt := func(what string) (int, error) {
		tok, ok := take()
		if !ok {
			return 0, fmt.Errorf("missing %s: %w", what, ErrBadHeader)
		}
		v, err := strconv.Atoi(tok)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%s %q: %w", what, tok, ErrBadHeader)
		}
		return v, nil
	}

	take() // keyword
	dim = 3
	if keyword == "nOFF" {
		if dim, err = takeInt("dimension"); err != nil {
			return 0, 0, 0, err
		}
		if dim == 0 {
			return 0, 0, 0, fmt.Errorf("zero dimension: %w", ErrBadHeader)
		}
	}
	if expect, err = takeInt("point count"); err != nil {
		return 0, 0, 0, err
	}
	// Face and edge counts are part of the format but unused for point sets.
	if _, err = takeInt("face count"); err != nil {
		return 0, 0, 0, err
	}
	if _, err = takeInt("edge count"); err != nil {
		return 0, 0, 0, err
	}
	if len(tokens) != 0 {
		return 0, 0, 0, fmt.Errorf("trailing header tokens %v: %w", tokens, ErrBadHeader)
	}
	return dim, expect, next, nil
}
