package timing

import (
	"testing"

	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionNonOverlapping(t *testing.T) {
	clips := []timeline.Clip{
		{ID: 1, StartTime: 0, InPoint: 0, OutPoint: 2},
		{ID: 2, StartTime: 2, InPoint: 0, OutPoint: 2},
	}
	intervals := Partition(clips)
	require.Len(t, intervals, 2)
	assert.Equal(t, 0.0, intervals[0].Start)
	assert.Equal(t, 2.0, intervals[0].End)
	assert.Equal(t, 2.0, intervals[1].Start)
	assert.Equal(t, 4.0, intervals[1].End)
	assert.Len(t, intervals[0].Contributors, 1)
	assert.Len(t, intervals[1].Contributors, 1)
}

func TestPartitionOverlap(t *testing.T) {
	// Base clip [0,2) on track 0, overlay [0.5,1.5) on track 1.
	clips := []timeline.Clip{
		{ID: 1, Track: 0, StartTime: 0, InPoint: 0, OutPoint: 2},
		{ID: 2, Track: 1, StartTime: 0.5, InPoint: 0, OutPoint: 1},
	}
	intervals := Partition(clips)
	require.Len(t, intervals, 3)
	assert.Equal(t, []float64{0, 0.5, 1.5}, []float64{intervals[0].Start, intervals[1].Start, intervals[2].Start})
	assert.Len(t, intervals[0].Contributors, 1)
	assert.Len(t, intervals[1].Contributors, 2)
	assert.Len(t, intervals[2].Contributors, 1)
}

func TestBuildModelContiguousCoverage(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 2},
		{Start: 2, End: 2.5},
		{Start: 2.5, End: 4},
	}
	m := Build(intervals)
	require.Len(t, m.Mappings, 3)

	// Contiguous, disjoint coverage of [0, L).
	for i := 1; i < len(m.Mappings); i++ {
		assert.Equal(t, m.Mappings[i-1].AudioEnd, m.Mappings[i].AudioStart)
	}
	assert.Equal(t, 0.0, m.Mappings[0].AudioStart)
	assert.InDelta(t, 4.0, m.TotalAudioLength(), 1e-9)
}

// TestTimingBijection checks that every interior point of the merged
// audio resolves to a timeline time, and that a point inside a later
// interval lands at that interval's timeline origin plus its offset.
func TestTimingBijection(t *testing.T) {
	intervals := []Interval{
		{Start: 0, End: 2},
		{Start: 5, End: 7.5}, // a later clip on the timeline, contiguous in merged audio
	}
	m := Build(intervals)

	for _, probe := range []float64{0, 0.5, 1.999, 2.0, 2.4, 3.49} {
		got, ok := m.Remap(probe)
		require.True(t, ok, "probe %v should map", probe)
		assert.True(t, got >= 0)
	}

	// Interior point of the second interval.
	got, ok := m.Remap(3.0) // audio_t in [2, 4.5) maps into [5, 7.5)
	require.True(t, ok)
	assert.InDelta(t, 6.0, got, 1e-9)
}

func TestRemapFlagsOutOfRange(t *testing.T) {
	m := Build([]Interval{{Start: 0, End: 2}})
	got, ok := m.Remap(10)
	assert.False(t, ok)
	assert.Equal(t, 10.0, got)
}

func TestRemapSegmentsFlagsPartial(t *testing.T) {
	m := Build([]Interval{{Start: 0, End: 2}})
	segs := []TranscriptSegment{
		{Start: 0, End: 1, Text: "hello"},
		{Start: 5, End: 6, Text: "out of range"},
	}
	out := RemapSegments(m, segs)
	assert.False(t, out[0].Flagged)
	assert.True(t, out[1].Flagged)
}
