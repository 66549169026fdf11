// Package filtergraph builds the ffmpeg filter_complex strings the
// Composition Planner needs: per-input normalization, xfade/acrossfade
// chains, the multi-track overlay chain, audio concat/mix, and drawtext.
// Construction is centralized here since string-built filter graphs are
// easy to get subtly wrong when scattered across call sites.
package filtergraph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GCUGrayArea/clipforge/internal/timeline"
)

// TransitionSentinel is the synthetic gap duration used between clips
// with no declared transition, keeping the xfade chain's shape uniform.
const TransitionSentinel = 0.01

// DefaultFrameWidth and DefaultFrameHeight are the normalization fallback
// frame used when no clip yields usable probed dimensions.
const (
	DefaultFrameWidth  = 1280
	DefaultFrameHeight = 720
)

// ChooseFrameSize returns the common normalization frame: the max width
// and max height across the given probed dimensions, or the default
// fallback when the list is empty or all-zero.
func ChooseFrameSize(dims [][2]int) (width, height int) {
	width, height = 0, 0
	for _, d := range dims {
		if d[0] > width {
			width = d[0]
		}
		if d[1] > height {
			height = d[1]
		}
	}
	if width == 0 || height == 0 {
		return DefaultFrameWidth, DefaultFrameHeight
	}
	return width, height
}

// Normalize emits the per-input normalization filter forcing a common
// size, pixel format, frame rate and timebase — xfade's precondition.
// inputIndex is the ffmpeg -i ordinal; outLabel is the label without
// brackets (e.g. "vin0").
func Normalize(inputIndex, width, height int, outLabel string) string {
	return fmt.Sprintf(
		"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:-1:-1:color=black,"+
			"format=yuv420p,fps=fps=30:round=near,settb=expr=1/30,setpts=PTS-STARTPTS[%s]",
		inputIndex, width, height, width, height, outLabel,
	)
}

// XfadeName maps a UI transition kind to the transcoder's xfade name.
// wipeLeft/wipeRight are inverted because the xfade name denotes the
// direction of the incoming frame's motion.
func XfadeName(kind timeline.TransitionKind) (string, error) {
	switch kind {
	case timeline.Fade, timeline.Crossfade, timeline.Dissolve:
		return "fade", nil
	case timeline.FadeToBlack:
		return "fadeblack", nil
	case timeline.WipeLeft:
		return "wiperight", nil
	case timeline.WipeRight:
		return "wipeleft", nil
	default:
		return "", fmt.Errorf("unknown transition kind %q", kind)
	}
}

// PairGap describes the transition (if any) between clip i and i+1 in a
// sorted clip sequence, already resolved to a concrete duration/kind.
type PairGap struct {
	HasTransition bool
	Kind          timeline.TransitionKind
	Duration      float64
}

// effectiveDuration returns the transition duration or the sentinel gap.
func (g PairGap) effectiveDuration() float64 {
	if g.HasTransition {
		return g.Duration
	}
	return TransitionSentinel
}

// VideoXfadeChain builds the chain of xfade filters across N normalized
// video inputs ([vin0]..[vin{N-1}]) and returns the filter_complex
// fragment, the final output label ("vout"), and the cumulative start
// offset of each input clip within the chained output: offset_i
// accumulates prior durations minus each transition (or sentinel) gap.
func VideoXfadeChain(durations []float64, gaps []PairGap) (graph string, offsets []float64, err error) {
	n := len(durations)
	if n == 0 {
		return "", nil, fmt.Errorf("no clips")
	}
	if len(gaps) != n-1 {
		return "", nil, fmt.Errorf("expected %d pair gaps, got %d", n-1, len(gaps))
	}
	if n == 1 {
		return "", []float64{0}, nil
	}

	offsets = make([]float64, n)
	var parts []string
	for i := 0; i < n-1; i++ {
		d := gaps[i].effectiveDuration()
		offset := offsets[i] + durations[i] - d
		offsets[i+1] = offset

		name := "fade"
		if gaps[i].HasTransition {
			name, err = XfadeName(gaps[i].Kind)
			if err != nil {
				return "", nil, err
			}
		}

		left := fmt.Sprintf("[v%d]", i-1)
		if i == 0 {
			left = "[vin0]"
		}
		right := fmt.Sprintf("[vin%d]", i+1)
		outLabel := fmt.Sprintf("v%d", i)
		if i == n-2 {
			outLabel = "vout"
		}

		parts = append(parts, fmt.Sprintf("%s%sxfade=transition=%s:duration=%s:offset=%s[%s]",
			left, right, name, trimFloat(d), trimFloat(offset), outLabel))
	}
	return strings.Join(parts, ";"), offsets, nil
}

// AudioCrossfadeChain mirrors VideoXfadeChain for audio, using acrossfade
// with triangular curves on both sides.
func AudioCrossfadeChain(durations []float64, gaps []PairGap) (graph string, offsets []float64, err error) {
	n := len(durations)
	if n == 0 {
		return "", nil, fmt.Errorf("no clips")
	}
	if len(gaps) != n-1 {
		return "", nil, fmt.Errorf("expected %d pair gaps, got %d", n-1, len(gaps))
	}
	if n == 1 {
		return "", []float64{0}, nil
	}

	offsets = make([]float64, n)
	var parts []string
	for i := 0; i < n-1; i++ {
		d := gaps[i].effectiveDuration()
		offset := offsets[i] + durations[i] - d
		offsets[i+1] = offset

		left := fmt.Sprintf("[a%d]", i-1)
		if i == 0 {
			left = "[ain0]"
		}
		right := fmt.Sprintf("[ain%d]", i+1)
		outLabel := fmt.Sprintf("a%d", i)
		if i == n-2 {
			outLabel = "aout"
		}

		parts = append(parts, fmt.Sprintf("%s%sacrossfade=d=%s:c1=tri:c2=tri[%s]",
			left, right, trimFloat(d), outLabel))
	}
	return strings.Join(parts, ";"), offsets, nil
}

// AudioConcatChain emits an optional-stream audio concat across n
// inputs: missing audio on any input does not abort the graph.
func AudioConcatChain(n int) string {
	var labels strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&labels, "[%d:a?]", i)
	}
	return fmt.Sprintf("%sconcat=n=%d:v=0:a=1[aout]", labels.String(), n)
}

// OverlayStep is one contributing input to the multi-track overlay chain.
type OverlayStep struct {
	InputIndex int // ffmpeg -i ordinal of this overlay clip
	StartTime  float64
	EndTime    float64
}

// OverlayChain scales each overlay to 25% width (preserving aspect) and
// chains `overlay=...:enable='between(t,start,end)'` once per overlay,
// compositing each as picture-in-picture over the base track.
func OverlayChain(steps []OverlayStep) string {
	if len(steps) == 0 {
		return ""
	}
	var parts []string
	for k, s := range steps {
		parts = append(parts, fmt.Sprintf("[%d:v]scale=iw*0.25:-1[scaled_%d]", s.InputIndex, k))
	}
	for k, s := range steps {
		prev := fmt.Sprintf("[temp_%d]", k)
		if k == 0 {
			prev = "[0:v]"
		}
		next := fmt.Sprintf("[temp_%d]", k+1)
		if k == len(steps)-1 {
			next = "[out]"
		}
		parts = append(parts, fmt.Sprintf("%s[scaled_%d]overlay=W-w-20:H-h-20:enable='between(t,%s,%s)'%s",
			prev, k, trimFloat(s.StartTime), trimFloat(s.EndTime), next))
	}
	return strings.Join(parts, ";")
}

// AmixChain mixes the base audio with each overlay's (optional) audio
// stream; the optional-stream selector keeps a missing overlay track
// from aborting the graph.
func AmixChain(overlayInputIndices []int, outLabel string) string {
	n := len(overlayInputIndices) + 1
	var labels strings.Builder
	labels.WriteString("[0:a?]")
	for _, idx := range overlayInputIndices {
		fmt.Fprintf(&labels, "[%d:a?]", idx)
	}
	return fmt.Sprintf("%samix=inputs=%d:duration=longest[%s]", labels.String(), n, outLabel)
}

// DrawText emits a drawtext filter for one text overlay, escaping the
// text (backslash, then single quote) and translating "#RRGGBB" to the
// transcoder's "0xRRGGBB" color form.
func DrawText(o timeline.TextOverlay) string {
	return fmt.Sprintf(
		"drawtext=text='%s':fontsize=%d:fontcolor=%s:x=(main_w*%s)/100:y=(main_h*%s)/100:enable='between(t,%s,%s)'",
		EscapeDrawText(o.Text), o.FontSize, hexToFFmpegColor(o.ColorHex),
		trimFloat(o.X), trimFloat(o.Y), trimFloat(o.StartTime), trimFloat(o.EndTime()),
	)
}

// EscapeDrawText escapes backslash then single quote, in that order, so
// the resulting text parses back to the original under ffmpeg's filter
// quoting rules.
func EscapeDrawText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `'\''`)
	return s
}

// EscapeConcatPath escapes a path for a single-quoted concat-demuxer
// list line: `file 'PATH'`, with `'` -> `'\''`.
func EscapeConcatPath(path string) string {
	return strings.ReplaceAll(path, `'`, `'\''`)
}

func hexToFFmpegColor(hex string) string {
	if strings.HasPrefix(hex, "#") {
		return "0x" + strings.TrimPrefix(hex, "#")
	}
	return hex
}

// trimFloat formats a float with enough precision for ffmpeg: three
// decimal places, trailing zeros kept so offsets remain comparable as
// strings.
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}
