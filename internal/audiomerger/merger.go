// Package audiomerger partitions a timeline into contributor-uniform
// intervals, extracts or mixes a 16 kHz mono PCM slice per interval,
// concatenates the slices into one WAV, and returns the timing model a
// caller uses to remap transcription segments back to timeline time.
package audiomerger

import (
	"context"
	"fmt"
	"strings"

	"github.com/GCUGrayArea/clipforge/internal/filtergraph"
	"github.com/GCUGrayArea/clipforge/internal/progress"
	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/GCUGrayArea/clipforge/internal/timing"
	"github.com/GCUGrayArea/clipforge/internal/toolchain"
	"github.com/GCUGrayArea/clipforge/internal/workdir"
	"github.com/rs/zerolog"
)

// Runner is the subset of toolchain.Adapter the AudioMerger depends on.
type Runner interface {
	Run(ctx context.Context, argv []string) (string, error)
	Probe(ctx context.Context, path string) (toolchain.VideoMetadata, error)
}

// Merger produces one merged timeline-audio WAV per call.
type Merger struct {
	Runner   Runner
	Progress *progress.Channel
	Log      zerolog.Logger
}

// New constructs a Merger.
func New(runner Runner, prog *progress.Channel, log zerolog.Logger) *Merger {
	if prog == nil {
		prog = progress.New()
	}
	return &Merger{Runner: runner, Progress: prog, Log: log}
}

// Merge partitions clips, extracts/mixes a slice per interval, and
// concatenates them into a single mono 16 kHz WAV at outputPath. Every
// slice and list file is created through dir and tracked there; Merge
// does not remove them itself, the caller's dir.Cleanup does.
func (m *Merger) Merge(ctx context.Context, clips []timeline.Clip, dir *workdir.Dir, outputPath string) (timing.Model, error) {
	m.Progress.Reset()

	intervals := timing.Partition(clips)
	if len(intervals) == 0 {
		return timing.Model{}, fmt.Errorf("audiomerger: no clips to merge")
	}

	contributorAudio := m.probeAudioPresence(ctx, clips)

	slices := make([]string, len(intervals))
	for i, iv := range intervals {
		slicePath, err := m.extractSlice(ctx, dir, i, iv, contributorAudio)
		if err != nil {
			return timing.Model{}, err
		}
		slices[i] = slicePath
		m.Progress.Set(float64(i+1)/float64(len(intervals))*80, "extracting", nil)
	}

	if err := m.concatenate(ctx, dir, slices, outputPath); err != nil {
		return timing.Model{}, err
	}
	m.Progress.Set(100, "complete", nil)

	return timing.Build(intervals), nil
}

// probeAudioPresence probes every distinct clip source once, returning
// whether ffprobe reported an audio stream. A probe failure is treated
// as "no audio" rather than aborting the merge.
func (m *Merger) probeAudioPresence(ctx context.Context, clips []timeline.Clip) map[string]bool {
	seen := make(map[string]bool, len(clips))
	for _, c := range clips {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		meta, err := m.Runner.Probe(ctx, c.Source)
		seen[c.Source] = err == nil && meta.AudioCodec != ""
	}
	return seen
}

// extractSlice produces one interval's audio slice: a direct trim when
// exactly one clip contributes, or an atrim+amix graph when several
// overlap, substituting silence for any contributor with no audio
// stream.
func (m *Merger) extractSlice(ctx context.Context, dir *workdir.Dir, idx int, iv timing.Interval, hasAudio map[string]bool) (string, error) {
	out := dir.Path(fmt.Sprintf("slice_%d.wav", idx))
	dur := trimSeconds(iv.Duration())

	if len(iv.Contributors) == 1 {
		c := iv.Contributors[0]
		offset := iv.Start - c.StartTime + c.InPoint
		var argv []string
		if hasAudio[c.Source] {
			argv = []string{"-ss", trimSeconds(offset), "-t", dur, "-i", c.Source,
				"-vn", "-ac", "1", "-ar", "16000", "-y", out}
		} else {
			argv = []string{"-f", "lavfi", "-i", "anullsrc=r=16000:cl=mono",
				"-t", dur, "-ac", "1", "-ar", "16000", "-y", out}
		}
		if err := m.run(ctx, "extract_slice", argv); err != nil {
			return "", err
		}
		return out, nil
	}

	var argv []string
	var filterParts []string
	var mixLabels strings.Builder
	for i, c := range iv.Contributors {
		if hasAudio[c.Source] {
			offset := iv.Start - c.StartTime + c.InPoint
			argv = append(argv, "-ss", trimSeconds(offset), "-t", dur, "-i", c.Source)
			filterParts = append(filterParts, fmt.Sprintf(
				"[%d:a]aformat=sample_fmts=s16:sample_rates=16000:channel_layouts=mono,asetpts=PTS-STARTPTS[a%d]", i, i))
		} else {
			argv = append(argv, "-f", "lavfi", "-i", "anullsrc=r=16000:cl=mono")
			filterParts = append(filterParts, fmt.Sprintf("[%d:a]atrim=duration=%s,asetpts=PTS-STARTPTS[a%d]", i, dur, i))
		}
		fmt.Fprintf(&mixLabels, "[a%d]", i)
	}
	filterParts = append(filterParts, fmt.Sprintf("%samix=inputs=%d:duration=longest[mixed]", mixLabels.String(), len(iv.Contributors)))

	argv = append(argv, "-filter_complex", strings.Join(filterParts, ";"),
		"-map", "[mixed]", "-ac", "1", "-ar", "16000", "-y", out)
	if err := m.run(ctx, "extract_slice_mix", argv); err != nil {
		return "", err
	}
	return out, nil
}

// concatenate joins every slice via the concat demuxer into the final
// merged WAV.
func (m *Merger) concatenate(ctx context.Context, dir *workdir.Dir, slices []string, outputPath string) error {
	var sb strings.Builder
	for _, s := range slices {
		sb.WriteString("file '")
		sb.WriteString(filtergraph.EscapeConcatPath(s))
		sb.WriteString("'\n")
	}
	listPath, err := dir.WriteFile("merge_list.txt", []byte(sb.String()))
	if err != nil {
		return fmt.Errorf("audiomerger: write concat list: %w", err)
	}

	argv := []string{"-f", "concat", "-safe", "0", "-i", listPath,
		"-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le", "-y", outputPath}
	return m.run(ctx, "concat_slices", argv)
}

func (m *Merger) run(ctx context.Context, stage string, argv []string) error {
	if _, err := m.Runner.Run(ctx, argv); err != nil {
		return fmt.Errorf("audiomerger: %s: %w", stage, err)
	}
	return nil
}

func trimSeconds(f float64) string {
	return fmt.Sprintf("%.3f", f)
}
