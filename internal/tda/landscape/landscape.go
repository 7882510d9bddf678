package landscape

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"

	"github.com/banshee-data/tdaseries/internal/tda/homology"
)

// ErrBadInterval reports an interval whose birth is after its death.
var ErrBadInterval = errors.New("landscape: interval born after it dies")

// Point2 is a critical point of a landscape layer.
type Point2 struct {
	X, Y float64
}

// Landscape holds the layers of a persistence landscape. Layer k is the
// k-th largest tent function at every x.
type Landscape struct {
	layers [][]Point2
}

// interval is a finite (birth, death) pair; its tent peaks at
// ((b+d)/2, (d-b)/2).
type interval struct {
	b, d float64
}

func (iv interval) peak() Point2 {
	return Point2{X: (iv.b + iv.d) / 2, Y: (iv.d - iv.b) / 2}
}

// New builds the landscape of d. Essential intervals are discarded and
// intervals of zero length contribute nothing. An interval with Birth >
// Death fails with ErrBadInterval.
func New(d homology.Diagram) (*Landscape, error) {
	ivs := make([]interval, 0, len(d))
	for _, iv := range d {
		if !(iv.Birth <= iv.Death) {
			return nil, fmt.Errorf("[%v, %v): %w", iv.Birth, iv.Death, ErrBadInterval)
		}
		if iv.IsEssential() || iv.Birth == iv.Death {
			continue
		}
		ivs = append(ivs, interval{b: iv.Birth, d: iv.Death})
	}
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].b != ivs[j].b {
			return ivs[i].b < ivs[j].b
		}
		return ivs[i].d > ivs[j].d
	})

	l := &Landscape{}
	for len(ivs) > 0 {
		var layer []Point2
		ivs, layer = sweep(ivs)
		l.layers = append(l.layers, layer)
	}
	return l, nil
}

// sweep extracts the upper envelope of ivs as one layer and returns the
// intervals left for the layers below, still sorted by birth ascending and
// death descending.
func sweep(ivs []interval) ([]interval, []Point2) {
	cur := ivs[0]
	layer := []Point2{{math.Inf(-1), 0}, {cur.b, 0}, cur.peak()}
	push := func(p Point2) {
		if last := layer[len(layer)-1]; last != p {
			layer = append(layer, p)
		}
	}

	var rest []interval
	for i := 1; i < len(ivs); {
		next := ivs[i]
		i++
		if next.d <= cur.d {
			// Nested under the current tent.
			rest = append(rest, next)
			continue
		}
		if next.b < cur.d {
			// The tents cross. The part of next below cur becomes the
			// interval (next.b, cur.d) of the layers below; intervals nested
			// in next are passed down around it to keep rest sorted.
			cross := interval{b: next.b, d: cur.d}
			push(cross.peak())
			for i < len(ivs) && ivs[i].b == cross.b && ivs[i].d >= cross.d {
				rest = append(rest, ivs[i])
				i++
			}
			rest = append(rest, cross)
			for i < len(ivs) && ivs[i].b >= cross.b && ivs[i].d <= cross.d {
				rest = append(rest, ivs[i])
				i++
			}
		} else {
			push(Point2{cur.d, 0})
			push(Point2{next.b, 0})
		}
		push(next.peak())
		cur = next
	}
	push(Point2{cur.d, 0})
	push(Point2{math.Inf(1), 0})
	return rest, layer
}

// Layers returns the number of non-trivial layers.
func (l *Landscape) Layers() int { return len(l.layers) }

// Layer returns the critical points of layer k, sentinels included. The
// slice is shared with the landscape and must not be modified.
func (l *Landscape) Layer(k int) []Point2 { return l.layers[k] }

// Norm returns (Σ_k ∫ λ_k(x)^q dx)^(1/q). Each layer is integrated exactly
// segment by segment; q = +Inf gives the largest layer value. An empty
// landscape has norm 0 and q <= 0 yields NaN.
func (l *Landscape) Norm(q float64) float64 {
	switch {
	case math.IsNaN(q) || q <= 0:
		return math.NaN()
	case math.IsInf(q, 1):
		var top float64
		for _, layer := range l.layers {
			for _, p := range layer {
				top = math.Max(top, p.Y)
			}
		}
		return top
	case q == 1:
		var sum float64
		for _, layer := range l.layers {
			xs, ys := finite(layer)
			if len(xs) >= 2 {
				sum += integrate.Trapezoidal(xs, ys)
			}
		}
		return sum
	}

	var sum float64
	for _, layer := range l.layers {
		xs, ys := finite(layer)
		for i := 1; i < len(xs); i++ {
			sum += segmentPower(xs[i-1], ys[i-1], xs[i], ys[i], q)
		}
	}
	return math.Pow(sum, 1/q)
}

// finite returns the critical points of a layer without its sentinels.
func finite(layer []Point2) (xs, ys []float64) {
	inner := layer[1 : len(layer)-1]
	xs = make([]float64, len(inner))
	ys = make([]float64, len(inner))
	for i, p := range inner {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// segmentPower integrates y^q over the line from (x1, y1) to (x2, y2).
func segmentPower(x1, y1, x2, y2, q float64) float64 {
	width := x2 - x1
	if width <= 0 {
		return 0
	}
	if y1 == y2 {
		return width * math.Pow(y1, q)
	}
	slope := (y2 - y1) / width
	return (math.Pow(y2, q+1) - math.Pow(y1, q+1)) / ((q + 1) * slope)
}

// value evaluates layer k at x; layers past the last are zero.
func (l *Landscape) value(k int, x float64) float64 {
	if k >= len(l.layers) {
		return 0
	}
	layer := l.layers[k]
	i := sort.Search(len(layer), func(i int) bool { return layer[i].X >= x })
	if i == 0 || i == len(layer) {
		return 0
	}
	hi, lo := layer[i], layer[i-1]
	if hi.X == x || math.IsInf(lo.X, -1) {
		return hi.Y
	}
	if math.IsInf(hi.X, 1) {
		return lo.Y
	}
	return lo.Y + (hi.Y-lo.Y)*(x-lo.X)/(hi.X-lo.X)
}
