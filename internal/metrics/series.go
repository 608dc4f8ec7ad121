package metrics

import "sort"

// Point is one sample of a query time series.
type Point struct {
	Timestamp int64  `json:"t"` // epoch seconds
	Count     uint64 `json:"c"`
}

// TimeSeries is a sequence of samples with unique timestamps.
type TimeSeries []Point

// Descending returns a copy ordered newest first.
func (ts TimeSeries) Descending() TimeSeries {
	out := make(TimeSeries, len(ts))
	copy(out, ts)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// Total returns the sum of all counts.
func (ts TimeSeries) Total() uint64 {
	var total uint64
	for _, p := range ts {
		total += p.Count
	}
	return total
}

// Squash downsamples series into buckets of factor consecutive samples, in
// the order given. Each bucket carries the timestamp of its first sample and
// the sum of its counts. A trailing partial bucket is kept. Factors below 1
// are treated as 1, which returns a copy of the input.
func Squash(series TimeSeries, factor int) TimeSeries {
	if factor < 1 {
		factor = 1
	}
	if series == nil {
		return nil
	}

	out := make(TimeSeries, 0, len(series)/factor+1)
	var (
		n       int
		sum     uint64
		leading int64
	)
	for _, p := range series {
		if n == 0 {
			leading = p.Timestamp
		}
		n++
		sum += p.Count
		if n == factor {
			out = append(out, Point{Timestamp: leading, Count: sum})
			n, sum = 0, 0
		}
	}
	if n > 0 {
		out = append(out, Point{Timestamp: leading, Count: sum})
	}
	return out
}
