package testutil

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/tdaseries/internal/monitoring"
	"github.com/banshee-data/tdaseries/internal/tda/pointcloud"
)

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)

	ok := t.Run("unexpected error", func(t *testing.T) {
		AssertNoError(t, errors.New("boom"))
	})
	if ok {
		t.Fatal("expected subtest to fail when error is non-nil")
	}
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New("test error"))

	ok := t.Run("missing expected error", func(t *testing.T) {
		AssertError(t, nil)
	})
	if ok {
		t.Fatal("expected subtest to fail when error is nil")
	}
}

func TestSineSeries(t *testing.T) {
	s := SineSeries(5, math.Pi/2)
	assert.Len(t, s, 5)
	assert.InDelta(t, 0, s[0], 1e-12)
	assert.InDelta(t, 1, s[1], 1e-12)
	assert.InDelta(t, -1, s[3], 1e-12)
}

func TestCircle(t *testing.T) {
	c := Circle(4, 2)
	assert.Len(t, c, 4)
	for _, p := range c {
		assert.InDelta(t, 2, math.Hypot(p[0], p[1]), 1e-12)
	}
	assert.InDelta(t, 2, c[0][0], 1e-12)
}

func TestTranslate(t *testing.T) {
	c := pointcloud.Cloud{{1, 2}, {3, 4}}
	got := Translate(c, 10)
	assert.Equal(t, pointcloud.Cloud{{11, 12}, {13, 14}}, got)
	assert.Equal(t, pointcloud.Cloud{{1, 2}, {3, 4}}, c)
}

func TestCaptureLogs(t *testing.T) {
	t.Run("capture", func(t *testing.T) {
		buf := CaptureLogs(t, true)
		monitoring.Logf("hello %d", 1)
		monitoring.Debugf("detail")
		assert.Equal(t, []string{"hello 1", "[debug] detail"}, buf.Lines())
		assert.True(t, buf.Contains("detail"))
		assert.False(t, buf.Contains("absent"))
	})
	assert.False(t, monitoring.Verbose())
}
