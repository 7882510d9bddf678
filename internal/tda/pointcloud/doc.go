// Package pointcloud owns the input side of the feature pipeline.
//
// Responsibilities: the Point and Cloud types, loading OFF-style point
// files, time-delay embedding of scalar series, and slicing a series into
// overlapping fixed-size windows with their sign labels.
// Key types: Point, Cloud, WindowSource.
//
// Dependency rule: pointcloud depends on nothing else under internal/tda.
// Every other stage consumes its types.
package pointcloud
