// Package landscape turns a persistence diagram into its persistence
// landscape and measures it with the Lq norm.
//
// A landscape is a sequence of piecewise-linear layers λ_1 ≥ λ_2 ≥ ... ≥ 0,
// each stored as its critical points between the sentinels (-Inf, 0) and
// (+Inf, 0). Layers are built with the sweep of Bubenik and Dłotko over the
// finite intervals of the diagram.
//
// Dependency rule: landscape depends on homology for the diagram type only.
package landscape
