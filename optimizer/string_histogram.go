package optimizer

import (
	"mit.edu/dsg/simpledb/common"
)

// StringHistogram estimates selectivity over a string column by folding
// strings onto integers and delegating to an IntHistogram. The fold packs
// the first four bytes big-endian, so the histogram orders strings the way
// a four-byte prefix comparison would.
type StringHistogram struct {
	hist *IntHistogram
}

const maxFoldString = "zzzz"

// NewStringHistogram creates a histogram with the given bucket count over
// the foldable range [fold(""), fold("zzzz")].
func NewStringHistogram(buckets int) *StringHistogram {
	h := &StringHistogram{}
	h.hist = NewIntHistogram(buckets, h.fold(""), h.fold(maxFoldString))
	return h
}

func (h *StringHistogram) fold(s string) int32 {
	v := int32(0)
	for i := 3; i >= 0; i-- {
		if len(s) > 3-i {
			v += int32(s[3-i]) << (i * 8)
		}
	}
	if h.hist != nil {
		// Clamp bytes outside the printable fold range into bounds.
		if v < h.hist.min {
			v = h.hist.min
		}
		if v > h.hist.max {
			v = h.hist.max
		}
	}
	return v
}

// AddValue records one occurrence of s.
func (h *StringHistogram) AddValue(s string) error {
	return h.hist.AddValue(h.fold(s))
}

// EstimateSelectivity returns the estimated fraction of recorded strings
// satisfying `value op s`.
func (h *StringHistogram) EstimateSelectivity(op common.Op, s string) float64 {
	return h.hist.EstimateSelectivity(op, h.fold(s))
}

// AvgSelectivity returns the mean equality selectivity.
func (h *StringHistogram) AvgSelectivity() float64 {
	return h.hist.AvgSelectivity()
}
