package telemetry

import "math"

type sortEntry struct {
	key float64
	seq int
	c   Coordinate
}

// less orders by key, then by arrival. NaN keys sort after every number.
func (a sortEntry) less(b sortEntry) bool {
	an, bn := math.IsNaN(a.key), math.IsNaN(b.key)
	switch {
	case an != bn:
		return bn
	case !an && a.key != b.key:
		return a.key < b.key
	default:
		return a.seq < b.seq
	}
}

// quickSort sorts in place using Lomuto partitioning around the last element.
// It recurses into the smaller side and loops over the larger one so stack
// depth stays logarithmic even on already-sorted input.
func quickSort(a []sortEntry) {
	for len(a) > 1 {
		p := partition(a)
		if p < len(a)-1-p {
			quickSort(a[:p])
			a = a[p+1:]
		} else {
			quickSort(a[p+1:])
			a = a[:p]
		}
	}
}

func partition(a []sortEntry) int {
	hi := len(a) - 1
	pivot := a[hi]
	i := 0
	for j := 0; j < hi; j++ {
		if a[j].less(pivot) {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}
