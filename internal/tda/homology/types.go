package homology

import (
	"math"
	"sort"
)

// Interval is a birth–death pair of one homological dimension. Death is
// +Inf for an essential class that never dies.
type Interval struct {
	Dim   int
	Birth float64
	Death float64
}

// Persistence returns Death-Birth, +Inf for essential classes.
func (i Interval) Persistence() float64 {
	return i.Death - i.Birth
}

// IsEssential reports whether the class never dies.
func (i Interval) IsEssential() bool {
	return math.IsInf(i.Death, 1)
}

// Diagram is the multiset of intervals of one dimension.
type Diagram []Interval

// Finite returns the intervals with a finite death, in the same order.
func (d Diagram) Finite() Diagram {
	out := make(Diagram, 0, len(d))
	for _, iv := range d {
		if !iv.IsEssential() {
			out = append(out, iv)
		}
	}
	return out
}

// Pairs returns the (birth, death) pairs of the diagram.
func (d Diagram) Pairs() [][2]float64 {
	out := make([][2]float64, len(d))
	for i, iv := range d {
		out[i] = [2]float64{iv.Birth, iv.Death}
	}
	return out
}

// sortIntervals orders by dimension, birth, then death.
func sortIntervals(ivs []Interval) {
	sort.Slice(ivs, func(i, j int) bool {
		a, b := ivs[i], ivs[j]
		if a.Dim != b.Dim {
			return a.Dim < b.Dim
		}
		if a.Birth != b.Birth {
			return a.Birth < b.Birth
		}
		return a.Death < b.Death
	})
}
