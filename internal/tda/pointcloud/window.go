package pointcloud

// WindowSource slices a series into the overlapping point clouds
// [i, i+W) for every start index i in [0, N-W).
//
// The window starting at N-W is deliberately absent: its label would need
// point N, which does not exist.
type WindowSource struct {
	series Cloud
	size   int
}

// Windows creates a WindowSource over series with window size size.
// A series no longer than size yields zero windows.
func Windows(series Cloud, size int) *WindowSource {
	return &WindowSource{series: series, size: size}
}

// Size returns the window size W.
func (s *WindowSource) Size() int { return s.size }

// Count returns max(N-W, 0).
func (s *WindowSource) Count() int {
	if s.size < 1 {
		return 0
	}
	n := len(s.series) - s.size
	if n < 0 {
		return 0
	}
	return n
}

// At returns a copy of window i. It panics if i is outside [0, Count()).
func (s *WindowSource) At(i int) Cloud {
	if i < 0 || i >= s.Count() {
		panic("pointcloud: window index out of range")
	}
	return s.series[i : i+s.size].Clone()
}

// Label returns 1 when the last coordinate of point i+W is non-negative and
// 0 when it is negative. Zero belongs to the positive class.
func (s *WindowSource) Label(i int) int {
	return SignLabel(s.series[i+s.size].Last())
}

// SignLabel maps a return to its class: 1 for v >= 0, 0 otherwise.
func SignLabel(v float64) int {
	if v >= 0 {
		return 1
	}
	return 0
}
