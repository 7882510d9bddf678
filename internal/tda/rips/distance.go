package rips

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DistanceFunc measures two points of equal dimension. It must be a metric
// (non-negative, symmetric, triangle inequality); Build only rejects
// negative and non-finite values.
type DistanceFunc func(a, b []float64) float64

// Euclidean is the L2 distance.
func Euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// Manhattan is the L1 distance.
func Manhattan(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Chebyshev is the L∞ distance.
func Chebyshev(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// DistanceByName maps a configuration name to its DistanceFunc.
func DistanceByName(name string) (DistanceFunc, error) {
	switch name {
	case "", "euclidean":
		return Euclidean, nil
	case "manhattan":
		return Manhattan, nil
	case "chebyshev":
		return Chebyshev, nil
	default:
		return nil, fmt.Errorf("unknown distance %q: %w", name, ErrBadOption)
	}
}
