// Package rips builds filtered Vietoris–Rips complexes over point clouds.
//
// Responsibilities: pairwise distances, the neighbour graph of pairs within
// the edge-length threshold, clique expansion up to a maximal dimension and
// the deterministic filtration order consumed by persistent homology.
// Key types: Complex, Simplex, Options, DistanceFunc.
//
// Dependency rule: rips may depend on pointcloud, never on homology or
// landscape.
//
// The builder does not prune: the number of simplices grows exponentially
// with dimension for dense thresholds. Window size, threshold and maximal
// dimension are the caller's controls.
package rips
