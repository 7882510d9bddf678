// Package features assembles per-window feature rows and reads and writes
// the training table.
//
// A row is the last point of a window, the landscape norm of the window
// and the sign label of the following point. The table is written one row
// per line, values separated by single spaces, with no header.
//
// Dependency rule: features depends on pointcloud for the point type only.
package features
