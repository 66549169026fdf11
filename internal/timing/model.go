// Package timing builds the piecewise audio-time <-> timeline-time
// mapping used to remap transcription segments: walk a sequence of
// merged-audio spans, accumulating an offset, and record where each one
// lands back on the timeline.
package timing

import (
	"math"
	"sort"

	"github.com/GCUGrayArea/clipforge/internal/timeline"
)

// boundaryTolerance is the dedup tolerance for boundary times.
const boundaryTolerance = 0.001

// Interval is one non-empty, contributor-uniform span of the timeline,
// identified by the boundary-time partition.
type Interval struct {
	Start, End  float64
	Contributors []timeline.Clip
}

// Duration is the interval's length on the timeline.
func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Partition collects clip boundary times, sorts and dedups them with a
// 1ms tolerance, then retains the non-empty adjacent spans: those whose
// midpoint falls inside at least one clip's [start_time, timeline_end).
func Partition(clips []timeline.Clip) []Interval {
	if len(clips) == 0 {
		return nil
	}

	var bounds []float64
	for _, c := range clips {
		bounds = append(bounds, c.StartTime, c.TimelineEnd())
	}
	sort.Float64s(bounds)

	deduped := bounds[:0:0]
	for _, b := range bounds {
		if len(deduped) == 0 || b-deduped[len(deduped)-1] > boundaryTolerance {
			deduped = append(deduped, b)
		}
	}

	var intervals []Interval
	for i := 0; i < len(deduped)-1; i++ {
		start, end := deduped[i], deduped[i+1]
		mid := (start + end) / 2

		var contributors []timeline.Clip
		for _, c := range clips {
			if c.StartTime <= mid && mid < c.TimelineEnd() {
				contributors = append(contributors, c)
			}
		}
		if len(contributors) > 0 {
			intervals = append(intervals, Interval{Start: start, End: end, Contributors: contributors})
		}
	}
	return intervals
}

// Triple is one piece of the piecewise mapping: the half-open audio
// span [AudioStart, AudioEnd) translates to timeline time TimelineStart
// plus the offset into the span.
type Triple struct {
	AudioStart, AudioEnd float64
	TimelineStart        float64
}

// Model is the ordered, non-overlapping, contiguous audio-to-timeline
// mapping.
type Model struct {
	Mappings []Triple
}

// Build walks intervals in order, assigning each one a contiguous span
// of the merged audio ([0, L)) and recording its timeline origin.
func Build(intervals []Interval) Model {
	var m Model
	cursor := 0.0
	for _, iv := range intervals {
		dur := iv.Duration()
		m.Mappings = append(m.Mappings, Triple{
			AudioStart:    cursor,
			AudioEnd:      cursor + dur,
			TimelineStart: iv.Start,
		})
		cursor += dur
	}
	return m
}

// TotalAudioLength is the merged audio's total length L implied by the
// model's contiguous coverage.
func (m Model) TotalAudioLength() float64 {
	if len(m.Mappings) == 0 {
		return 0
	}
	return m.Mappings[len(m.Mappings)-1].AudioEnd
}

// Remap translates an audio-domain time to timeline time. ok is false
// when original falls outside every mapped interval (the segment is
// left unchanged by the caller and flagged).
func (m Model) Remap(original float64) (timelineTime float64, ok bool) {
	for _, t := range m.Mappings {
		if original >= t.AudioStart && original < t.AudioEnd {
			return t.TimelineStart + (original - t.AudioStart), true
		}
	}
	// Exact end-of-model boundary is inclusive so the final instant of
	// merged audio still resolves (half-open intervals otherwise exclude it).
	if len(m.Mappings) > 0 {
		last := m.Mappings[len(m.Mappings)-1]
		if math.Abs(original-last.AudioEnd) < 1e-9 {
			return last.TimelineStart + (original - last.AudioStart), true
		}
	}
	return original, false
}

// TranscriptSegment is one speech-to-text result span in audio-domain
// time, alongside its original payload.
type TranscriptSegment struct {
	Start, End float64
	Text       string
	Flagged    bool // true when Remap could not place it
}

// RemapSegments remaps every segment's Start/End in place, flagging any
// segment Remap could not place.
func RemapSegments(m Model, segments []TranscriptSegment) []TranscriptSegment {
	out := make([]TranscriptSegment, len(segments))
	for i, s := range segments {
		start, okStart := m.Remap(s.Start)
		end, okEnd := m.Remap(s.End)
		out[i] = TranscriptSegment{Start: start, End: end, Text: s.Text, Flagged: !okStart || !okEnd}
	}
	return out
}
