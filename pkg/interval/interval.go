// Package interval implements merge/subtract algebra over half-open time ranges.
package interval

import (
	"sort"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New builds an interval.
func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Empty reports whether the interval covers no instant.
func (i Interval) Empty() bool {
	return !i.End.After(i.Start)
}

// Duration returns the length of the interval, zero when empty.
func (i Interval) Duration() time.Duration {
	if i.Empty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Contains reports whether t lies inside [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Covers reports whether other lies entirely inside i.
func (i Interval) Covers(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Overlaps reports whether a and b share at least one instant.
// Intervals that only touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Clamp intersects x with [lo, hi). ok is false when nothing remains.
func Clamp(x Interval, lo, hi time.Time) (Interval, bool) {
	if x.Start.Before(lo) {
		x.Start = lo
	}
	if x.End.After(hi) {
		x.End = hi
	}
	if x.Empty() {
		return Interval{}, false
	}
	return x, true
}

// Sort orders intervals ascending by start, then by end.
func Sort(xs []Interval) {
	sort.Slice(xs, func(i, j int) bool {
		if xs[i].Start.Equal(xs[j].Start) {
			return xs[i].End.Before(xs[j].End)
		}
		return xs[i].Start.Before(xs[j].Start)
	})
}

// Merge returns the maximal disjoint ranges covering xs. Overlapping and
// adjacent intervals are coalesced, empty ones dropped. The input is not modified.
func Merge(xs []Interval) []Interval {
	work := make([]Interval, 0, len(xs))
	for _, x := range xs {
		if !x.Empty() {
			work = append(work, x)
		}
	}
	if len(work) == 0 {
		return nil
	}
	Sort(work)

	merged := []Interval{work[0]}
	for _, x := range work[1:] {
		last := &merged[len(merged)-1]
		if !x.Start.After(last.End) {
			if x.End.After(last.End) {
				last.End = x.End
			}
			continue
		}
		merged = append(merged, x)
	}
	return merged
}

// Subtract removes every busy instant from avail. avail is expected sorted and
// disjoint (as produced by Merge); busy may be in any order and may overlap.
// The result is ascending, disjoint and contains no empty range.
func Subtract(avail, busy []Interval) []Interval {
	blocks := Merge(busy)
	var out []Interval
	j := 0
	for _, a := range avail {
		if a.Empty() {
			continue
		}
		// busy blocks ending at or before a.Start cannot affect a or anything after it
		for j < len(blocks) && !blocks[j].End.After(a.Start) {
			j++
		}
		cursor := a.Start
		for k := j; k < len(blocks) && blocks[k].Start.Before(a.End); k++ {
			b := blocks[k]
			if b.Start.After(cursor) {
				out = append(out, Interval{Start: cursor, End: b.Start})
			}
			if b.End.After(cursor) {
				cursor = b.End
			}
			if !cursor.Before(a.End) {
				break
			}
		}
		if cursor.Before(a.End) {
			out = append(out, Interval{Start: cursor, End: a.End})
		}
	}
	return out
}

// AnyOverlap reports whether x overlaps any of others.
func AnyOverlap(x Interval, others []Interval) bool {
	for _, o := range others {
		if Overlaps(x, o) {
			return true
		}
	}
	return false
}
