// Package homology computes persistent homology of filtered complexes with
// coefficients in the prime field Z/pZ.
//
// Responsibilities: field arithmetic, the persistent cohomology reduction
// and the resulting birth–death intervals grouped by dimension.
// Key types: Field, Interval, Diagram, Persistence.
//
// Dimension 0 is handled with a union-find over vertices (elder rule).
// Higher dimensions keep a basis of sparse cocycles: a simplex whose
// boundary pairs to zero against every live cocycle opens a new class,
// otherwise the youngest cocycle it pairs with dies and the others are
// reduced by it.
//
// Dependency rule: homology depends on rips for the complex type only.
package homology
