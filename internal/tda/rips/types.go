package rips

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrBadOption indicates an unusable builder option.
	ErrBadOption = errors.New("rips: invalid option")

	// ErrBadDistance indicates a negative or non-finite pairwise distance,
	// usually caused by NaN or infinite coordinates.
	ErrBadDistance = errors.New("rips: invalid distance")

	// ErrDimensionMismatch indicates points of different dimensions.
	ErrDimensionMismatch = errors.New("rips: points differ in dimension")

	// ErrNotClosed indicates a simplex whose face is missing or listed after it.
	ErrNotClosed = errors.New("rips: complex is not face-closed")

	// ErrNotFiltration indicates filtration values that decrease along the
	// order or a simplex entering before one of its faces.
	ErrNotFiltration = errors.New("rips: filtration is not monotone")
)

// Options configures Build.
type Options struct {
	// Threshold is the maximal edge length θ. Pairs farther apart are not
	// connected. +Inf keeps every pair.
	Threshold float64

	// MaxDim is the maximal simplex dimension D. 0 keeps only vertices.
	MaxDim int

	// Distance measures pairs of points. Nil selects Euclidean.
	Distance DistanceFunc
}

// DefaultOptions returns an unbounded threshold, dimension 1 and the
// Euclidean distance.
func DefaultOptions() Options {
	return Options{
		Threshold: math.Inf(1),
		MaxDim:    1,
		Distance:  Euclidean,
	}
}

// Simplex is a sorted set of point indices with the filtration value at
// which it enters the complex.
type Simplex struct {
	Vertices   []int
	Filtration float64
}

// Dim returns the simplex dimension: vertex count minus one.
func (s Simplex) Dim() int {
	return len(s.Vertices) - 1
}

// key encodes a sorted vertex set as a map key.
func key(vertices []int) string {
	buf := make([]byte, 4*len(vertices))
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
	}
	return string(buf)
}

// lessVertices orders vertex sets lexicographically.
func lessVertices(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
