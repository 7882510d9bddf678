package pointcloud

// Embed builds the time-delay embedding of a scalar series: point t is
// (x[t], x[t+delay], ..., x[t+(dim-1)*delay]). The newest sample is the last
// coordinate, which is what the window labels read.
//
// Returns an empty cloud when dim or delay is not positive or the series is
// too short to produce a single point.
func Embed(series []float64, dim, delay int) Cloud {
	if dim < 1 || delay < 1 {
		return Cloud{}
	}
	span := (dim - 1) * delay
	n := len(series) - span
	if n <= 0 {
		return Cloud{}
	}

	out := make(Cloud, n)
	for t := 0; t < n; t++ {
		p := make(Point, dim)
		for k := 0; k < dim; k++ {
			p[k] = series[t+k*delay]
		}
		out[t] = p
	}
	return out
}
