// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers and synthetic series used
// across the pipeline tests. Packages that testutil imports (pointcloud,
// monitoring) cannot use it from their own tests.
package testutil

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/tdaseries/internal/monitoring"
	"github.com/banshee-data/tdaseries/internal/tda/pointcloud"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// SineSeries returns n samples of sin(step·i).
func SineSeries(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(step * float64(i))
	}
	return out
}

// Circle returns n points evenly spaced on the circle of radius r around
// the origin, starting on the positive x axis.
func Circle(n int, r float64) pointcloud.Cloud {
	out := make(pointcloud.Cloud, n)
	for i := range out {
		theta := 2 * math.Pi * float64(i) / float64(n)
		out[i] = pointcloud.Point{r * math.Cos(theta), r * math.Sin(theta)}
	}
	return out
}

// Translate returns a copy of c with offset added to every coordinate.
func Translate(c pointcloud.Cloud, offset float64) pointcloud.Cloud {
	out := c.Clone()
	for _, p := range out {
		floats.AddConst(offset, p)
	}
	return out
}

// LogBuffer collects lines written through monitoring.Logf.
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a copy of the captured lines.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Contains reports whether any captured line contains substr.
func (b *LogBuffer) Contains(substr string) bool {
	for _, l := range b.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// CaptureLogs redirects monitoring.Logf into a LogBuffer until the test
// ends. Verbose output is enabled when verbose is true and restored too.
func CaptureLogs(t testing.TB, verbose bool) *LogBuffer {
	t.Helper()
	buf := &LogBuffer{}
	prevLogf, prevVerbose := monitoring.Logf, monitoring.Verbose()
	monitoring.SetLogger(func(format string, v ...interface{}) {
		buf.mu.Lock()
		defer buf.mu.Unlock()
		buf.lines = append(buf.lines, fmt.Sprintf(format, v...))
	})
	monitoring.SetVerbose(verbose)
	t.Cleanup(func() {
		monitoring.SetLogger(prevLogf)
		monitoring.SetVerbose(prevVerbose)
	})
	return buf
}
