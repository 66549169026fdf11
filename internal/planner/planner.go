// Package planner implements the Composition Planner: validation,
// classification into one of three render strategies, filter-graph
// assembly via internal/filtergraph, transcoder invocation via a
// Runner, and guaranteed intermediate cleanup via internal/workdir.
//
// Each strategy trims its inputs, assembles its filter graph (a -vf
// chain for Fast-Concat, filter_complex passes for the others), invokes
// the transcoder, and reports progress at fixed checkpoints, cleaning up
// intermediates on every exit path.
package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/GCUGrayArea/clipforge/internal/filtergraph"
	"github.com/GCUGrayArea/clipforge/internal/progress"
	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/GCUGrayArea/clipforge/internal/toolchain"
	"github.com/GCUGrayArea/clipforge/internal/workdir"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Runner is the subset of toolchain.Adapter the Planner depends on,
// narrowed to an interface so tests can substitute a fake transcoder.
// The transcoder is an external collaborator from the Planner's point
// of view.
type Runner interface {
	Run(ctx context.Context, argv []string) (string, error)
	Probe(ctx context.Context, path string) (toolchain.VideoMetadata, error)
}

// Strategy is the closed set of render paths a timeline classifies
// into.
type Strategy int

const (
	FastConcat Strategy = iota
	WithTransitions
	MultiTrack
)

func (s Strategy) String() string {
	switch s {
	case FastConcat:
		return "fast-concat"
	case WithTransitions:
		return "with-transitions"
	case MultiTrack:
		return "multi-track"
	default:
		return "unknown"
	}
}

// Planner orchestrates one render at a time; a concurrent Render call
// is rejected rather than queued.
type Planner struct {
	Runner   Runner
	FS       afero.Fs
	TempRoot string // system temp dir; work dirs are created under TempRoot/clipforge_export
	Progress *progress.Channel
	Log      zerolog.Logger

	busy atomic.Bool
}

// New constructs a Planner. fs is used both to check source existence
// and to manage the scoped work directory; pass afero.NewOsFs() in
// production and afero.NewMemMapFs() in tests.
func New(runner Runner, fs afero.Fs, tempRoot string, prog *progress.Channel, log zerolog.Logger) *Planner {
	if prog == nil {
		prog = progress.New()
	}
	return &Planner{Runner: runner, FS: fs, TempRoot: tempRoot, Progress: prog, Log: log}
}

// Render validates, classifies, dispatches to a strategy, and on
// return the working directory is empty regardless of outcome.
func (p *Planner) Render(ctx context.Context, clips []timeline.Clip, transitions []timeline.Transition, overlays []timeline.TextOverlay, settings timeline.ExportSettings) (string, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return "", errLockFailure()
	}
	defer p.busy.Store(false)

	p.Progress.Reset()

	if err := validate(clips, transitions); err != nil {
		return "", err
	}
	if err := p.checkSourcesExist(clips); err != nil {
		return "", err
	}

	sorted := sortClips(clips)
	transitionsByPair, err := indexTransitions(sorted, transitions)
	if err != nil {
		return "", err
	}

	strategy := classify(sorted, transitionsByPair)
	p.Log.Info().Str("strategy", strategy.String()).Int("clips", len(sorted)).Msg("render classified")

	root := filepath.Join(p.TempRoot, "clipforge_export", uuid.NewString())
	dir, err := workdir.Open(p.FS, root)
	if err != nil {
		return "", errIOFailure(err)
	}
	defer func() {
		if errs := dir.Cleanup(); len(errs) > 0 {
			p.Log.Warn().Errs("cleanup_errors", errs).Msg("intermediate cleanup had errors")
		}
	}()

	p.Progress.Set(0, "start", nil)

	var out string
	switch strategy {
	case FastConcat:
		out, err = p.renderFastConcat(ctx, sorted, overlays, settings, dir, 0, 100)
	case WithTransitions:
		out, err = p.renderWithTransitions(ctx, sorted, transitionsByPair, overlays, settings, dir, 0, 100)
	case MultiTrack:
		out, err = p.renderMultiTrack(ctx, sorted, transitionsByPair, overlays, settings, dir)
	}
	if err != nil {
		return "", err
	}

	p.Progress.Set(100, "complete", nil)
	return out, nil
}

// sortClips stably sorts by StartTime, keeping original input order as
// the tie-break.
func sortClips(clips []timeline.Clip) []timeline.Clip {
	sorted := make([]timeline.Clip, len(clips))
	copy(sorted, clips)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })
	return sorted
}

type pairKey struct{ before, after int }

// indexTransitions builds a (clip_id_before, clip_id_after) -> Transition
// map, validating adjacency and duration bounds against the sorted clip
// order.
func indexTransitions(sorted []timeline.Clip, transitions []timeline.Transition) (map[pairKey]timeline.Transition, error) {
	indexByID := make(map[int]int, len(sorted))
	for i, c := range sorted {
		indexByID[c.ID] = i
	}

	out := make(map[pairKey]timeline.Transition, len(transitions))
	for _, tr := range transitions {
		if _, err := filtergraph.XfadeName(tr.Kind); err != nil {
			return nil, errUnknownTransitionKind(string(tr.Kind))
		}

		bi, ok1 := indexByID[tr.ClipIDBefore]
		ai, ok2 := indexByID[tr.ClipIDAfter]
		if !ok1 || !ok2 || ai != bi+1 || sorted[bi].Track != sorted[ai].Track {
			return nil, errInvalidTransition(fmt.Sprintf("clips %d,%d are not adjacent", tr.ClipIDBefore, tr.ClipIDAfter))
		}
		if tr.Duration <= 0 || tr.Duration >= sorted[bi].Duration() || tr.Duration >= sorted[ai].Duration() {
			return nil, errInvalidTransition(fmt.Sprintf("transition %d duration out of bounds", tr.ID))
		}

		key := pairKey{tr.ClipIDBefore, tr.ClipIDAfter}
		if _, dup := out[key]; dup {
			return nil, errInvalidTransition(fmt.Sprintf("duplicate transition for pair (%d,%d)", tr.ClipIDBefore, tr.ClipIDAfter))
		}
		out[key] = tr
	}
	return out, nil
}

// validate checks the timeline-level invariants that must hold before
// classification: a non-empty clip list, positive clip durations, and
// only known transition kinds.
func validate(clips []timeline.Clip, transitions []timeline.Transition) error {
	if len(clips) == 0 {
		return errEmptyTimeline()
	}
	for _, c := range clips {
		if c.Duration() <= 0 {
			return errInvalidDuration(c.ID)
		}
	}
	for _, tr := range transitions {
		if _, err := filtergraph.XfadeName(tr.Kind); err != nil {
			return errUnknownTransitionKind(string(tr.Kind))
		}
	}
	return nil
}

func (p *Planner) checkSourcesExist(clips []timeline.Clip) error {
	for _, c := range clips {
		exists, err := afero.Exists(p.FS, c.Source)
		if err != nil {
			return errIOFailure(err)
		}
		if !exists {
			return errSourceMissing(c.Source)
		}
	}
	return nil
}

// overlap reports whether two clips on different tracks occupy
// overlapping time ranges on the timeline.
func overlap(a, b timeline.Clip) bool {
	if a.Track == b.Track {
		return false
	}
	return !(a.TimelineEnd() <= b.StartTime || b.TimelineEnd() <= a.StartTime)
}

// classify is the sole decision point: Multi-Track if any pair overlaps,
// else With-Transitions if any transition exists, else Fast-Concat.
func classify(sorted []timeline.Clip, transitions map[pairKey]timeline.Transition) Strategy {
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if overlap(sorted[i], sorted[j]) {
				return MultiTrack
			}
		}
	}
	if len(transitions) > 0 {
		return WithTransitions
	}
	return FastConcat
}

// runToolchain wraps a Runner.Run call, translating *toolchain.Failure
// into a planner.Error with the given stage label.
func (p *Planner) runToolchain(ctx context.Context, stage string, argv []string) error {
	_, err := p.Runner.Run(ctx, argv)
	if err == nil {
		return nil
	}
	var fail *toolchain.Failure
	if tf, ok := asToolchainFailure(err); ok {
		fail = tf
	}
	if fail != nil {
		return errToolchainFailure(stage, fail.Stderr, fail.Err)
	}
	return errToolchainFailure(stage, "", err)
}

func asToolchainFailure(err error) (*toolchain.Failure, bool) {
	tf, ok := err.(*toolchain.Failure)
	return tf, ok
}

// probeFrameSize probes every clip and returns the common normalization
// frame (max width/height across successful probes), falling back to
// the default when no clip yields usable dimensions.
func (p *Planner) probeFrameSize(ctx context.Context, clips []timeline.Clip) (int, int) {
	var dims [][2]int
	for _, c := range clips {
		meta, err := p.Runner.Probe(ctx, c.Source)
		if err != nil || meta.Width == 0 || meta.Height == 0 {
			continue
		}
		dims = append(dims, [2]int{meta.Width, meta.Height})
	}
	return filtergraph.ChooseFrameSize(dims)
}

// resolvedFrameSize honors an explicit export resolution when set,
// otherwise falls back to probing. A zero-value Resolution (the Go zero
// value, distinct in representation from but equivalent in meaning to
// ResolutionSource) is treated the same as an explicit "Source" choice.
func (p *Planner) resolvedFrameSize(ctx context.Context, clips []timeline.Clip, settings timeline.ExportSettings) (int, int) {
	if settings.Resolution.Width > 0 && settings.Resolution.Height > 0 {
		return settings.Resolution.Width, settings.Resolution.Height
	}
	return p.probeFrameSize(ctx, clips)
}

// scaleAndDrawtextFilter builds the -vf chain applied on top of an
// already-composed video: resolution scaling plus one drawtext per
// active text overlay.
func scaleAndDrawtextFilter(width, height int, overlays []timeline.TextOverlay) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:-1:-1:color=black", width, height, width, height))
	for _, o := range overlays {
		parts = append(parts, filtergraph.DrawText(o))
	}
	return strings.Join(parts, ",")
}

// encodeSuffix is the fixed H.264/AAC encode tail applied to every
// strategy's final output.
func encodeSuffix(outputPath string) []string {
	return []string{"-c:v", "libx264", "-crf", "23", "-c:a", "aac", "-b:a", "192k", "-y", outputPath}
}
