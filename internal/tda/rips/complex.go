package rips

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/tdaseries/internal/tda/pointcloud"
)

// Complex is a filtered simplicial complex. Simplices are stored in
// filtration order: by filtration value, then dimension, then
// lexicographic vertex order. The order is total, so every consumer sees
// the same sequence for the same input.
type Complex struct {
	simplices   []Simplex
	index       map[string]int
	numVertices int
	dim         int
}

// Build constructs the Rips complex of cloud.
//
// Steps:
//  1. Compute the symmetric distance matrix and keep pairs within
//     opts.Threshold as edges, each filtered by its length.
//  2. Expand cliques of the neighbour graph up to opts.MaxDim. A simplex is
//     filtered by the largest edge among its vertices, which is the maximum
//     over its faces.
//  3. Sort into filtration order and index every simplex by vertex set.
//
// Complexity: O(n²·d) for distances plus the size of the output complex.
func Build(cloud pointcloud.Cloud, opts Options) (*Complex, error) {
	if opts.MaxDim < 0 {
		return nil, fmt.Errorf("max dimension %d: %w", opts.MaxDim, ErrBadOption)
	}
	if math.IsNaN(opts.Threshold) || opts.Threshold < 0 {
		return nil, fmt.Errorf("threshold %v: %w", opts.Threshold, ErrBadOption)
	}
	dist := opts.Distance
	if dist == nil {
		dist = Euclidean
	}

	n := cloud.Len()
	for i := 1; i < n; i++ {
		if len(cloud[i]) != len(cloud[0]) {
			return nil, fmt.Errorf("point %d has dimension %d, want %d: %w",
				i, len(cloud[i]), len(cloud[0]), ErrDimensionMismatch)
		}
	}

	cpx := &Complex{numVertices: n}
	if n == 0 {
		cpx.index = map[string]int{}
		return cpx, nil
	}

	distances, upper, err := neighbourGraph(cloud, dist, opts.Threshold)
	if err != nil {
		return nil, err
	}

	for u := 0; u < n; u++ {
		cpx.simplices = append(cpx.simplices, Simplex{Vertices: []int{u}})
		if opts.MaxDim >= 1 {
			cpx.expand([]int{u}, 0, upper[u], upper, distances, opts.MaxDim)
		}
	}

	cpx.sortAndIndex()
	return cpx, nil
}

// neighbourGraph fills the distance matrix and, for every vertex u, the
// sorted list of neighbours v > u within threshold.
func neighbourGraph(cloud pointcloud.Cloud, dist DistanceFunc, threshold float64) (*mat.SymDense, [][]int, error) {
	n := cloud.Len()
	distances := mat.NewSymDense(n, nil)
	upper := make([][]int, n)

	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			d := dist(cloud[u], cloud[v])
			if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
				return nil, nil, fmt.Errorf("points %d and %d: distance %v: %w", u, v, d, ErrBadDistance)
			}
			distances.SetSym(u, v, d)
			if d <= threshold {
				upper[u] = append(upper[u], v)
			}
		}
	}
	return distances, upper, nil
}

// expand appends every coface of simplex obtained by adding one vertex from
// candidates, then recurses while the dimension allows. candidates holds the
// common upper neighbours of all vertices in simplex, in ascending order.
func (c *Complex) expand(simplex []int, filtration float64, candidates []int, upper [][]int, distances *mat.SymDense, maxDim int) {
	for i, v := range candidates {
		f := filtration
		for _, u := range simplex {
			if d := distances.At(u, v); d > f {
				f = d
			}
		}

		coface := make([]int, len(simplex)+1)
		copy(coface, simplex)
		coface[len(simplex)] = v
		c.simplices = append(c.simplices, Simplex{Vertices: coface, Filtration: f})

		if len(coface)-1 < maxDim {
			next := intersectSorted(candidates[i+1:], upper[v])
			if len(next) > 0 {
				c.expand(coface, f, next, upper, distances, maxDim)
			}
		}
	}
}

func intersectSorted(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

func (c *Complex) sortAndIndex() {
	sort.Slice(c.simplices, func(i, j int) bool {
		a, b := c.simplices[i], c.simplices[j]
		if a.Filtration != b.Filtration {
			return a.Filtration < b.Filtration
		}
		if len(a.Vertices) != len(b.Vertices) {
			return len(a.Vertices) < len(b.Vertices)
		}
		return lessVertices(a.Vertices, b.Vertices)
	})

	c.index = make(map[string]int, len(c.simplices))
	c.dim = -1
	for i, s := range c.simplices {
		c.index[key(s.Vertices)] = i
		if s.Dim() > c.dim {
			c.dim = s.Dim()
		}
	}
}

// Len returns the number of simplices.
func (c *Complex) Len() int { return len(c.simplices) }

// NumVertices returns the number of points the complex was built from.
func (c *Complex) NumVertices() int { return c.numVertices }

// Dimension returns the largest simplex dimension present, or -1 when empty.
func (c *Complex) Dimension() int {
	if len(c.simplices) == 0 {
		return -1
	}
	return c.dim
}

// At returns the simplex at filtration position i. The vertex slice is
// shared with the complex and must not be modified.
func (c *Complex) At(i int) Simplex { return c.simplices[i] }

// Simplices returns all simplices in filtration order. The slice is shared
// with the complex and must not be modified.
func (c *Complex) Simplices() []Simplex { return c.simplices }

// Find returns the filtration position of the simplex with the given sorted
// vertex set.
func (c *Complex) Find(vertices []int) (int, bool) {
	i, ok := c.index[key(vertices)]
	return i, ok
}

// Faces returns the positions of the codimension-1 faces of simplex i.
// Entry j is the face obtained by removing vertex j, so the boundary of the
// simplex is Σ (-1)^j · faces[j]. Vertices have no faces.
func (c *Complex) Faces(i int) []int {
	vs := c.simplices[i].Vertices
	if len(vs) < 2 {
		return nil
	}
	faces := make([]int, len(vs))
	face := make([]int, len(vs)-1)
	for j := range vs {
		copy(face, vs[:j])
		copy(face[j:], vs[j+1:])
		pos, ok := c.index[key(face)]
		if !ok {
			pos = -1
		}
		faces[j] = pos
	}
	return faces
}

// CountByDim returns the number of simplices per dimension.
func (c *Complex) CountByDim() []int {
	counts := make([]int, c.Dimension()+1)
	for _, s := range c.simplices {
		counts[s.Dim()]++
	}
	return counts
}

// Validate checks that every face of every simplex is present, precedes it
// in the order and has a filtration value no greater than its own, and that
// filtration values never decrease along the order.
func (c *Complex) Validate() error {
	for i, s := range c.simplices {
		if i > 0 && s.Filtration < c.simplices[i-1].Filtration {
			return fmt.Errorf("position %d: %v after %v: %w", i, s.Filtration, c.simplices[i-1].Filtration, ErrNotFiltration)
		}
		for j, f := range c.Faces(i) {
			if f < 0 {
				return fmt.Errorf("simplex %v misses face %d: %w", s.Vertices, j, ErrNotClosed)
			}
			if f >= i {
				return fmt.Errorf("simplex %v precedes its face %v: %w", s.Vertices, c.simplices[f].Vertices, ErrNotFiltration)
			}
			if c.simplices[f].Filtration > s.Filtration {
				return fmt.Errorf("simplex %v enters before face %v: %w", s.Vertices, c.simplices[f].Vertices, ErrNotFiltration)
			}
		}
	}
	return nil
}

// FromSimplices assembles a complex from explicit simplices, for callers
// that filter something other than a point cloud. Vertex sets are sorted,
// the result is put in filtration order and validated.
func FromSimplices(simplices []Simplex) (*Complex, error) {
	cpx := &Complex{simplices: make([]Simplex, len(simplices))}
	maxVertex := -1
	for i, s := range simplices {
		vs := append([]int(nil), s.Vertices...)
		sort.Ints(vs)
		for j := 1; j < len(vs); j++ {
			if vs[j] == vs[j-1] {
				return nil, fmt.Errorf("simplex %v repeats vertex %d: %w", s.Vertices, vs[j], ErrBadOption)
			}
		}
		if len(vs) == 0 {
			return nil, fmt.Errorf("empty simplex at %d: %w", i, ErrBadOption)
		}
		if vs[len(vs)-1] > maxVertex {
			maxVertex = vs[len(vs)-1]
		}
		cpx.simplices[i] = Simplex{Vertices: vs, Filtration: s.Filtration}
	}
	cpx.numVertices = maxVertex + 1
	cpx.sortAndIndex()
	if len(cpx.index) != len(cpx.simplices) {
		return nil, fmt.Errorf("duplicate simplices: %w", ErrBadOption)
	}
	if err := cpx.Validate(); err != nil {
		return nil, err
	}
	return cpx, nil
}
