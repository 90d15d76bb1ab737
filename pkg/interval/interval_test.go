package interval

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func iv(h1, m1, h2, m2 int) Interval {
	return New(at(h1, m1), at(h2, m2))
}

func TestOverlapsHalfOpen(t *testing.T) {
	assert.True(t, Overlaps(iv(10, 0, 11, 0), iv(10, 30, 11, 30)))
	assert.True(t, Overlaps(iv(10, 30, 11, 30), iv(10, 0, 11, 0)))
	assert.True(t, Overlaps(iv(9, 0, 12, 0), iv(10, 0, 11, 0)))
	assert.False(t, Overlaps(iv(10, 0, 11, 0), iv(11, 0, 12, 0)))
	assert.False(t, Overlaps(iv(11, 0, 12, 0), iv(10, 0, 11, 0)))
	assert.False(t, Overlaps(iv(8, 0, 9, 0), iv(10, 0, 11, 0)))
}

func TestClamp(t *testing.T) {
	got, ok := Clamp(iv(8, 0, 12, 0), at(9, 0), at(10, 0))
	require.True(t, ok)
	assert.Equal(t, iv(9, 0, 10, 0), got)

	_, ok = Clamp(iv(8, 0, 9, 0), at(9, 0), at(10, 0))
	assert.False(t, ok)

	_, ok = Clamp(iv(12, 0, 11, 0), at(0, 0), at(23, 0))
	assert.False(t, ok)
}

func TestMergeCoalescesOverlappingAndAdjacent(t *testing.T) {
	in := []Interval{
		iv(13, 0, 15, 0),
		iv(9, 0, 10, 0),
		iv(10, 0, 11, 0),
		iv(9, 30, 10, 30),
		iv(16, 0, 16, 0),
	}
	got := Merge(in)
	assert.Equal(t, []Interval{iv(9, 0, 11, 0), iv(13, 0, 15, 0)}, got)
	assert.Equal(t, iv(13, 0, 15, 0), in[0], "input must not be reordered")
}

func TestMergeIsIdempotent(t *testing.T) {
	once := Merge([]Interval{iv(9, 0, 12, 0), iv(11, 0, 13, 0), iv(14, 0, 15, 0)})
	assert.Equal(t, once, Merge(once))
}

func TestSubtract(t *testing.T) {
	cases := []struct {
		name  string
		avail []Interval
		busy  []Interval
		want  []Interval
	}{
		{
			name:  "split in the middle",
			avail: []Interval{iv(9, 0, 17, 0)},
			busy:  []Interval{iv(10, 0, 11, 0)},
			want:  []Interval{iv(9, 0, 10, 0), iv(11, 0, 17, 0)},
		},
		{
			name:  "fully consumed range dropped",
			avail: []Interval{iv(9, 0, 10, 0), iv(12, 0, 13, 0)},
			busy:  []Interval{iv(8, 0, 10, 30)},
			want:  []Interval{iv(12, 0, 13, 0)},
		},
		{
			name:  "unsorted overlapping busy",
			avail: []Interval{iv(9, 0, 17, 0)},
			busy:  []Interval{iv(15, 0, 16, 0), iv(10, 0, 12, 0), iv(11, 0, 13, 0)},
			want:  []Interval{iv(9, 0, 10, 0), iv(13, 0, 15, 0), iv(16, 0, 17, 0)},
		},
		{
			name:  "busy spanning two ranges",
			avail: []Interval{iv(9, 0, 12, 0), iv(13, 0, 15, 0)},
			busy:  []Interval{iv(11, 0, 14, 0)},
			want:  []Interval{iv(9, 0, 11, 0), iv(14, 0, 15, 0)},
		},
		{
			name:  "touching busy leaves range intact",
			avail: []Interval{iv(9, 0, 10, 0)},
			busy:  []Interval{iv(8, 0, 9, 0), iv(10, 0, 11, 0)},
			want:  []Interval{iv(9, 0, 10, 0)},
		},
		{
			name:  "no busy",
			avail: []Interval{iv(9, 0, 10, 0)},
			want:  []Interval{iv(9, 0, 10, 0)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Subtract(tc.avail, tc.busy))
		})
	}
}

func TestSubtractMatchesPointwiseDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	random := func(n int) []Interval {
		out := make([]Interval, n)
		for i := range out {
			s := rng.Intn(96)
			out[i] = New(base.Add(time.Duration(s)*15*time.Minute), base.Add(time.Duration(s+1+rng.Intn(12))*15*time.Minute))
		}
		return out
	}
	inAny := func(t time.Time, xs []Interval) bool {
		for _, x := range xs {
			if x.Contains(t) {
				return true
			}
		}
		return false
	}

	for round := 0; round < 50; round++ {
		avail := Merge(random(6))
		busy := random(5)
		got := Subtract(avail, busy)
		for i := 1; i < len(got); i++ {
			require.True(t, got[i-1].End.Before(got[i].Start) || got[i-1].End.Equal(got[i].Start))
		}
		for _, g := range got {
			require.False(t, g.Empty())
		}
		for step := 0; step < 24*4*2; step++ {
			sample := base.Add(time.Duration(step) * 15 * time.Minute / 2)
			want := inAny(sample, avail) && !inAny(sample, busy)
			require.Equal(t, want, inAny(sample, got), "round %d sample %s", round, sample)
		}
	}
}
