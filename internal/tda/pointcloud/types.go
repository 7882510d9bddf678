package pointcloud

// Point is an ordered, fixed-length sequence of real coordinates.
type Point []float64

// Last returns the final coordinate, or 0 for an empty point.
func (p Point) Last() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1]
}

// Clone returns an independent copy of p.
func (p Point) Clone() Point {
	out := make(Point, len(p))
	copy(out, p)
	return out
}

// Cloud is an ordered sequence of points sharing one dimension. Insertion
// order is the original index order of the series.
type Cloud []Point

// Len returns the number of points.
func (c Cloud) Len() int { return len(c) }

// Dim returns the dimension of the first point, or 0 for an empty cloud.
func (c Cloud) Dim() int {
	if len(c) == 0 {
		return 0
	}
	return len(c[0])
}

// Last returns the final point of the cloud, or nil when empty.
func (c Cloud) Last() Point {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// Clone deep-copies the cloud so callers can hand it to another goroutine.
func (c Cloud) Clone() Cloud {
	out := make(Cloud, len(c))
	for i, p := range c {
		out[i] = p.Clone()
	}
	return out
}

// Column extracts coordinate j of every point.
func (c Cloud) Column(j int) []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p[j]
	}
	return out
}
