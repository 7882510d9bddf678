package homology

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/banshee-data/tdaseries/internal/tda/rips"
)

// Option configures Compute.
type Option func(*options)

type options struct {
	topDimension bool
}

// WithTopDimension also tracks classes in the complex's own maximal
// dimension. Without it such classes are never opened: nothing in the
// complex can kill them, so they would only ever be essential.
func WithTopDimension() Option {
	return func(o *options) { o.topDimension = true }
}

// Persistence is the result of Compute: every retained interval of every
// dimension over one coefficient field.
type Persistence struct {
	field     Field
	intervals []Interval
}

// cocycle is a sparse cochain keyed by simplex filtration position.
type cocycle struct {
	birth  float64
	coeffs map[int]int
}

// Compute runs persistent cohomology over cpx with coefficients in field.
//
// A finite interval is retained iff Death-Birth > minPersistence, so a
// negative cutoff keeps zero-length intervals. Essential intervals are
// always retained. Simplices are processed in the complex's filtration
// order and ties are broken by that order alone, so identical inputs give
// identical intervals.
//
// The complex must satisfy rips.Complex.Validate; Compute checks it and
// returns the validation error otherwise.
//
// Complexity: O(m·c·k) for m simplices, c live cocycles touching a face and
// faces per simplex k, in practice far below the dense matrix bound.
func Compute(cpx *rips.Complex, field Field, minPersistence float64, opts ...Option) (*Persistence, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if field.p == 0 {
		return nil, fmt.Errorf("uninitialised field: %w", ErrNotPrime)
	}
	if err := cpx.Validate(); err != nil {
		return nil, err
	}

	// Classes are opened only below dimMax.
	dimMax := cpx.Dimension()
	if o.topDimension {
		dimMax++
	}

	r := &reducer{
		cpx:            cpx,
		field:          field,
		minPersistence: minPersistence,
		dimMax:         dimMax,
		parent:         make(map[int]int, cpx.NumVertices()),
		rootBirth:      make(map[int]int, cpx.NumVertices()),
		cocycles:       make(map[int]*cocycle),
		touch:          make(map[int]map[int]struct{}),
	}

	for i, s := range cpx.Simplices() {
		switch s.Dim() {
		case 0:
			r.addVertex(i, s.Vertices[0])
		case 1:
			r.addEdge(i, s)
		default:
			r.addSimplex(i, s)
		}
	}
	r.closeEssential()

	sortIntervals(r.intervals)
	return &Persistence{field: field, intervals: r.intervals}, nil
}

type reducer struct {
	cpx            *rips.Complex
	field          Field
	minPersistence float64
	dimMax         int

	// Union-find over vertex ids. rootBirth maps a component root to the
	// filtration position of the vertex that created the component.
	parent    map[int]int
	rootBirth map[int]int

	// Live cocycles keyed by the filtration position of their creator, and
	// for every simplex position the set of cocycles supported on it.
	cocycles map[int]*cocycle
	touch    map[int]map[int]struct{}

	intervals []Interval
}

func (r *reducer) record(dim int, birth, death float64) {
	if math.IsInf(death, 1) || death-birth > r.minPersistence {
		r.intervals = append(r.intervals, Interval{Dim: dim, Birth: birth, Death: death})
	}
}

func (r *reducer) find(v int) int {
	for r.parent[v] != v {
		r.parent[v] = r.parent[r.parent[v]]
		v = r.parent[v]
	}
	return v
}

func (r *reducer) addVertex(pos, v int) {
	r.parent[v] = v
	r.rootBirth[v] = pos
}

// addEdge either merges two components, killing the younger one, or closes
// a cycle and opens a 1-cocycle.
func (r *reducer) addEdge(pos int, s rips.Simplex) {
	ru, rv := r.find(s.Vertices[0]), r.find(s.Vertices[1])
	if ru != rv {
		elder, younger := ru, rv
		if r.rootBirth[rv] < r.rootBirth[ru] {
			elder, younger = rv, ru
		}
		r.record(0, r.cpx.At(r.rootBirth[younger]).Filtration, s.Filtration)
		r.parent[younger] = elder
		delete(r.rootBirth, younger)
		return
	}
	if 1 < r.dimMax {
		r.open(pos, s.Filtration)
	}
}

// addSimplex pairs the boundary of a simplex of dimension >= 2 with the
// live cocycles of the dimension below.
func (r *reducer) addSimplex(pos int, s rips.Simplex) {
	values := make(map[int]int)
	for j, face := range r.cpx.Faces(pos) {
		sign := 1
		if j%2 == 1 {
			sign = r.field.Neg(1)
		}
		for id := range r.touch[face] {
			c := r.field.Mul(sign, r.cocycles[id].coeffs[face])
			values[id] = r.field.Add(values[id], c)
		}
	}

	youngest := -1
	for id, v := range values {
		if v != 0 && id > youngest {
			youngest = id
		}
	}
	if youngest < 0 {
		if s.Dim() < r.dimMax {
			r.open(pos, s.Filtration)
		}
		return
	}

	dying := r.cocycles[youngest]
	r.record(s.Dim()-1, dying.birth, s.Filtration)

	scale := r.field.Inv(values[youngest])
	for id, v := range values {
		if id == youngest || v == 0 {
			continue
		}
		r.axpy(id, r.field.Neg(r.field.Mul(v, scale)), dying)
	}
	r.drop(youngest)
}

// open creates the cocycle dual to the simplex at pos.
func (r *reducer) open(pos int, birth float64) {
	r.cocycles[pos] = &cocycle{birth: birth, coeffs: map[int]int{pos: 1}}
	r.link(pos, pos)
}

// axpy performs cocycles[id] += a·x, keeping the touch index in sync.
func (r *reducer) axpy(id, a int, x *cocycle) {
	z := r.cocycles[id]
	for pos, c := range x.coeffs {
		v := r.field.Add(z.coeffs[pos], r.field.Mul(a, c))
		if v == 0 {
			delete(z.coeffs, pos)
			r.unlink(pos, id)
			continue
		}
		if _, ok := z.coeffs[pos]; !ok {
			r.link(pos, id)
		}
		z.coeffs[pos] = v
	}
}

func (r *reducer) drop(id int) {
	for pos := range r.cocycles[id].coeffs {
		r.unlink(pos, id)
	}
	delete(r.cocycles, id)
}

func (r *reducer) link(pos, id int) {
	set, ok := r.touch[pos]
	if !ok {
		set = make(map[int]struct{})
		r.touch[pos] = set
	}
	set[id] = struct{}{}
}

func (r *reducer) unlink(pos, id int) {
	if set, ok := r.touch[pos]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.touch, pos)
		}
	}
}

// closeEssential records every class still alive after the last simplex.
func (r *reducer) closeEssential() {
	for _, birthPos := range r.rootBirth {
		r.record(0, r.cpx.At(birthPos).Filtration, math.Inf(1))
	}
	for id, z := range r.cocycles {
		r.record(r.cpx.At(id).Dim(), z.birth, math.Inf(1))
	}
}

// Field returns the coefficient field used.
func (p *Persistence) Field() Field { return p.field }

// All returns every retained interval, ordered by dimension, birth, death.
func (p *Persistence) All() []Interval {
	out := make([]Interval, len(p.intervals))
	copy(out, p.intervals)
	return out
}

// Intervals returns the diagram of dimension dim, ordered by birth, death.
func (p *Persistence) Intervals(dim int) Diagram {
	var out Diagram
	for _, iv := range p.intervals {
		if iv.Dim == dim {
			out = append(out, iv)
		}
	}
	return out
}

// Betti returns, per dimension, the number of essential classes: the Betti
// numbers of the full complex.
func (p *Persistence) Betti() []int {
	var betti []int
	for _, iv := range p.intervals {
		if !iv.IsEssential() {
			continue
		}
		for len(betti) <= iv.Dim {
			betti = append(betti, 0)
		}
		betti[iv.Dim]++
	}
	return betti
}

// WriteDiagram writes one interval per line as "p dim birth death", the
// field characteristic first and "inf" for essential classes.
func (p *Persistence) WriteDiagram(w io.Writer) error {
	return WriteDiagram(w, p.field.Characteristic(), p.intervals)
}

// WriteDiagram writes intervals computed over Z/pZ in the format of
// (*Persistence).WriteDiagram.
func WriteDiagram(w io.Writer, p int, intervals []Interval) error {
	bw := bufio.NewWriter(w)
	for _, iv := range intervals {
		death := "inf"
		if !iv.IsEssential() {
			death = strconv.FormatFloat(iv.Death, 'g', -1, 64)
		}
		if _, err := fmt.Fprintf(bw, "%d %d %s %s\n", p, iv.Dim,
			strconv.FormatFloat(iv.Birth, 'g', -1, 64), death); err != nil {
			return err
		}
	}
	return bw.Flush()
}
