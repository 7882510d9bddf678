package homology

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tdaseries/internal/tda/pointcloud"
	"github.com/banshee-data/tdaseries/internal/tda/rips"
)

var inf = math.Inf(1)

func mustField(t *testing.T, p int) Field {
	t.Helper()
	f, err := NewField(p)
	require.NoError(t, err)
	return f
}

// triangle has three vertices at 0 and sides entering at 1, 2 and 3. When
// filled, the 2-simplex enters at 4.
func triangle(t *testing.T, filled bool) *rips.Complex {
	t.Helper()
	simplices := []rips.Simplex{
		{Vertices: []int{0}}, {Vertices: []int{1}}, {Vertices: []int{2}},
		{Vertices: []int{0, 1}, Filtration: 1},
		{Vertices: []int{1, 2}, Filtration: 2},
		{Vertices: []int{0, 2}, Filtration: 3},
	}
	if filled {
		simplices = append(simplices, rips.Simplex{Vertices: []int{0, 1, 2}, Filtration: 4})
	}
	cpx, err := rips.FromSimplices(simplices)
	require.NoError(t, err)
	return cpx
}

func buildCloud(t *testing.T, cloud pointcloud.Cloud, threshold float64, maxDim int) *rips.Complex {
	t.Helper()
	o := rips.DefaultOptions()
	o.Threshold = threshold
	o.MaxDim = maxDim
	cpx, err := rips.Build(cloud, o)
	require.NoError(t, err)
	return cpx
}

func TestNewField(t *testing.T) {
	for _, p := range []int{2, 3, 5, 11, 101, math.MaxInt32} {
		f, err := NewField(p)
		require.NoError(t, err, "p=%d", p)
		assert.Equal(t, p, f.Characteristic())
	}
	for _, p := range []int{-3, 0, 1, 4, 9, 91, 2147483659} {
		_, err := NewField(p)
		assert.ErrorIs(t, err, ErrNotPrime, "p=%d", p)
	}
}

func TestField_Arithmetic(t *testing.T) {
	for _, p := range []int{2, 3, 11} {
		f := mustField(t, p)
		for a := 1; a < p; a++ {
			assert.Equal(t, 1, f.Mul(a, f.Inv(a)), "p=%d a=%d", p, a)
			assert.Equal(t, 0, f.Add(a, f.Neg(a)), "p=%d a=%d", p, a)
		}
		assert.Equal(t, 0, f.Inv(0))
		assert.Equal(t, 0, f.Neg(0))
	}

	f := mustField(t, 11)
	assert.Equal(t, 10, f.Reduce(-1))
	assert.Equal(t, 1, f.Reduce(23))
	assert.Equal(t, 9, f.Sub(3, 5))
	assert.Equal(t, 4, f.Add(7, 8))
	assert.Equal(t, 1, f.Mul(3, 4))
}

func TestCompute_HollowTriangle(t *testing.T) {
	cpx := triangle(t, false)

	// A 1-dimensional complex tracks no H1 classes by default.
	pers, err := Compute(cpx, mustField(t, 11), 0)
	require.NoError(t, err)
	want := []Interval{{0, 0, 1}, {0, 0, 2}, {0, 0, inf}}
	if diff := cmp.Diff(want, pers.All()); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}

	pers, err = Compute(cpx, mustField(t, 11), 0, WithTopDimension())
	require.NoError(t, err)
	assert.Equal(t, Diagram{{1, 3, inf}}, pers.Intervals(1))
	assert.Equal(t, []int{1, 1}, pers.Betti())
}

func TestCompute_FilledTriangle(t *testing.T) {
	pers, err := Compute(triangle(t, true), mustField(t, 11), 0)
	require.NoError(t, err)

	want := []Interval{{0, 0, 1}, {0, 0, 2}, {0, 0, inf}, {1, 3, 4}}
	if diff := cmp.Diff(want, pers.All()); diff != "" {
		t.Errorf("intervals mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1}, pers.Betti())
	assert.Empty(t, pers.Intervals(2))
}

func TestCompute_UnitSquareLoop(t *testing.T) {
	cloud := pointcloud.Cloud{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	cpx := buildCloud(t, cloud, inf, 2)

	for _, p := range []int{2, 3, 11} {
		pers, err := Compute(cpx, mustField(t, p), 0)
		require.NoError(t, err)

		h0 := pers.Intervals(0)
		assert.Len(t, h0.Finite(), 3)
		assert.Len(t, h0, 4)

		h1 := pers.Intervals(1)
		require.Len(t, h1, 1, "p=%d", p)
		assert.Equal(t, 1.0, h1[0].Birth)
		assert.InDelta(t, math.Sqrt2, h1[0].Death, 1e-12)
	}
}

func TestCompute_MinPersistence(t *testing.T) {
	cloud := pointcloud.Cloud{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	cpx := buildCloud(t, cloud, inf, 2)
	f := mustField(t, 11)

	// The diagonals open classes that die at once.
	pers, err := Compute(cpx, f, -1)
	require.NoError(t, err)
	assert.Len(t, pers.Intervals(1), 3)

	pers, err = Compute(cpx, f, 0.5)
	require.NoError(t, err)
	assert.Empty(t, pers.Intervals(1))
	assert.Len(t, pers.Intervals(0), 4)

	// Essential classes survive any cutoff.
	pers, err = Compute(cpx, f, 1e9)
	require.NoError(t, err)
	assert.Equal(t, Diagram{{0, 0, inf}}, pers.Intervals(0))
}

func TestCompute_RandomCloud(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const n = 5
	cloud := make(pointcloud.Cloud, n)
	for i := range cloud {
		cloud[i] = pointcloud.Point{rng.Float64(), rng.Float64(), rng.Float64()}
	}
	cpx := buildCloud(t, cloud, inf, 2)

	pers, err := Compute(cpx, mustField(t, 11), -1, WithTopDimension())
	require.NoError(t, err)

	for _, iv := range pers.All() {
		assert.LessOrEqual(t, iv.Birth, iv.Death)
	}
	assert.Len(t, pers.Intervals(0).Finite(), n-1)

	// The full 2-skeleton on n vertices has β = (1, 0, C(n-1, 3)).
	assert.Equal(t, []int{1, 0, 4}, pers.Betti())

	again, err := Compute(cpx, mustField(t, 11), -1, WithTopDimension())
	require.NoError(t, err)
	if diff := cmp.Diff(pers.All(), again.All()); diff != "" {
		t.Errorf("non-deterministic intervals (-first +second):\n%s", diff)
	}
}

func TestCompute_Empty(t *testing.T) {
	cpx := buildCloud(t, nil, inf, 1)
	pers, err := Compute(cpx, mustField(t, 2), 0)
	require.NoError(t, err)
	assert.Empty(t, pers.All())
	assert.Empty(t, pers.Betti())
}

func TestCompute_ZeroField(t *testing.T) {
	_, err := Compute(triangle(t, false), Field{}, 0)
	assert.ErrorIs(t, err, ErrNotPrime)
}

func TestWriteDiagram(t *testing.T) {
	pers, err := Compute(triangle(t, true), mustField(t, 11), 0)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pers.WriteDiagram(&buf))
	assert.Equal(t, "11 0 0 1\n11 0 0 2\n11 0 0 inf\n11 1 3 4\n", buf.String())
}

func TestDiagram_Helpers(t *testing.T) {
	d := Diagram{{1, 0, 2}, {1, 1, inf}, {1, 0.5, 0.75}}
	assert.Equal(t, Diagram{{1, 0, 2}, {1, 0.5, 0.75}}, d.Finite())
	assert.Equal(t, [][2]float64{{0, 2}, {1, inf}, {0.5, 0.75}}, d.Pairs())
	assert.True(t, d[1].IsEssential())
	assert.Equal(t, 0.25, d[2].Persistence())
}
