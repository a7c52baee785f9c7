package optimizer

import (
	"fmt"
	"strings"

	"mit.edu/dsg/simpledb/common"
)

// IntHistogram is a fixed-width (equi-width) histogram over a single integer
// column. It stores only per-bucket counts, so space and update time are
// constant in the number of values histogrammed.
type IntHistogram struct {
	buckets []int
	min     int32
	max     int32
	width   int32
	total   int
}

// NewIntHistogram creates a histogram of `buckets` buckets over the closed
// range [min, max]. Bucket width is ceil((max-min+1)/buckets), at least 1.
func NewIntHistogram(buckets int, min, max int32) *IntHistogram {
	common.Assert(buckets > 0, "histogram needs at least one bucket")
	common.Assert(min <= max, "histogram range is empty")
	span := int64(max) - int64(min) + 1
	width := (span + int64(buckets) - 1) / int64(buckets)
	if width < 1 {
		width = 1
	}
	return &IntHistogram{
		buckets: make([]int, buckets),
		min:     min,
		max:     max,
		width:   int32(width),
	}
}

func (h *IntHistogram) indexOf(v int32) int {
	idx := int((int64(v) - int64(h.min)) / int64(h.width))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(h.buckets) {
		idx = len(h.buckets) - 1
	}
	return idx
}

// AddValue records one occurrence of v. Values outside [min, max] are
// rejected with OutOfRange.
func (h *IntHistogram) AddValue(v int32) error {
	if v < h.min || v > h.max {
		return common.NewError(common.OutOfRange,
			"value %d outside histogram range [%d, %d]", v, h.min, h.max)
	}
	h.buckets[h.indexOf(v)]++
	h.total++
	return nil
}

// EstimateSelectivity returns the estimated fraction of recorded values
// satisfying `value op v`, in [0, 1]. Within a bucket the distribution is
// assumed uniform.
func (h *IntHistogram) EstimateSelectivity(op common.Op, v int32) float64 {
	if h.total == 0 {
		return 0.0
	}

	var selectivity float64
	idx := h.indexOf(v)
	leftEdge := int64(h.min) + int64(idx)*int64(h.width)
	rightEdge := leftEdge + int64(h.width)
	n := float64(h.total)

	switch op {
	case common.OpEquals, common.OpLike:
		if v < h.min || v > h.max {
			return 0.0
		}
		selectivity = (float64(h.buckets[idx]) / float64(h.width)) / n

	case common.OpGreaterThan:
		if v < h.min {
			return 1.0
		}
		if v > h.max {
			return 0.0
		}
		selectivity = float64(h.buckets[idx]) / n * float64(rightEdge-int64(v)) / float64(h.width)
		for i := idx + 1; i < len(h.buckets); i++ {
			selectivity += float64(h.buckets[i]) / n
		}

	case common.OpLessThan:
		if v < h.min {
			return 0.0
		}
		if v > h.max {
			return 1.0
		}
		selectivity = float64(h.buckets[idx]) / n * float64(int64(v)-leftEdge) / float64(h.width)
		for i := 0; i < idx; i++ {
			selectivity += float64(h.buckets[i]) / n
		}

	case common.OpNotEquals:
		selectivity = 1.0 - h.EstimateSelectivity(common.OpEquals, v)

	case common.OpGreaterThanOrEq:
		selectivity = h.EstimateSelectivity(common.OpGreaterThan, v) +
			h.EstimateSelectivity(common.OpEquals, v)

	case common.OpLessThanOrEq:
		selectivity = h.EstimateSelectivity(common.OpLessThan, v) +
			h.EstimateSelectivity(common.OpEquals, v)

	default:
		panic("unsupported operator")
	}

	if selectivity < 0.0 {
		selectivity = 0.0
	}
	if selectivity > 1.0 {
		selectivity = 1.0
	}
	return selectivity
}

// AvgSelectivity returns the mean selectivity of an equality predicate over
// the histogrammed values. Used by join-order heuristics elsewhere.
func (h *IntHistogram) AvgSelectivity() float64 {
	if h.total == 0 {
		return 0.0
	}
	n := float64(h.total)
	sum := 0.0
	for _, b := range h.buckets {
		// Each of the b values in this bucket has equality selectivity b/width/n.
		sum += float64(b) * float64(b) / float64(h.width) / n
	}
	return sum / n
}

func (h *IntHistogram) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "min=%d max=%d width=%d total=%d\n", h.min, h.max, h.width, h.total)
	for i, b := range h.buckets {
		left := int64(h.min) + int64(i)*int64(h.width)
		fmt.Fprintf(&sb, "[%d, %d) %d\n", left, left+int64(h.width), b)
	}
	return sb.String()
}
