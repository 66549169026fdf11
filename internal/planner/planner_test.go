package planner

import (
	"context"
	"testing"

	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/GCUGrayArea/clipforge/internal/toolchain"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner stands in for toolchain.Adapter so strategy tests never
// shell out to a real ffmpeg/ffprobe.
type fakeRunner struct {
	calls   [][]string
	probe   toolchain.VideoMetadata
	failAt  string // argv[0] value that should fail, "" for never
	failErr error
}

func (f *fakeRunner) Run(ctx context.Context, argv []string) (string, error) {
	f.calls = append(f.calls, argv)
	if f.failAt != "" {
		for _, a := range argv {
			if a == f.failAt {
				return "", &toolchain.Failure{Stage: toolchain.Transcode, Stderr: "boom", Err: f.failErr}
			}
		}
	}
	return "", nil
}

func (f *fakeRunner) Probe(ctx context.Context, path string) (toolchain.VideoMetadata, error) {
	return f.probe, nil
}

func newTestPlanner(runner Runner, sources ...string) (*Planner, afero.Fs) {
	fs := afero.NewMemMapFs()
	for _, s := range sources {
		_ = afero.WriteFile(fs, s, []byte("fake-source"), 0o644)
	}
	p := New(runner, fs, "/tmp", nil, zerolog.Nop())
	return p, fs
}

func clip(id int, start, in, out float64, track int) timeline.Clip {
	return timeline.Clip{ID: id, Source: "/src/clip.mp4", InPoint: in, OutPoint: out, StartTime: start, Track: track, Volume: 100}
}

func TestValidateEmptyTimeline(t *testing.T) {
	err := validate(nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindEmptyTimeline, err.(*Error).Kind)
}

func TestValidateInvalidDuration(t *testing.T) {
	clips := []timeline.Clip{clip(1, 0, 5, 5, 0)}
	err := validate(clips, nil)
	require.Error(t, err)
	assert.Equal(t, KindInvalidDuration, err.(*Error).Kind)
}

func TestValidateUnknownTransitionKind(t *testing.T) {
	clips := []timeline.Clip{clip(1, 0, 0, 5, 0), clip(2, 5, 0, 5, 0)}
	trs := []timeline.Transition{{ID: 1, ClipIDBefore: 1, ClipIDAfter: 2, Kind: "spiral", Duration: 1}}
	err := validate(clips, trs)
	require.Error(t, err)
	assert.Equal(t, KindUnknownTransitionKind, err.(*Error).Kind)
}

func TestIndexTransitionsRejectsNonAdjacent(t *testing.T) {
	sorted := []timeline.Clip{clip(1, 0, 0, 5, 0), clip(2, 5, 0, 5, 0), clip(3, 10, 0, 5, 0)}
	trs := []timeline.Transition{{ID: 1, ClipIDBefore: 1, ClipIDAfter: 3, Kind: timeline.Fade, Duration: 1}}
	_, err := indexTransitions(sorted, trs)
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, err.(*Error).Kind)
}

func TestIndexTransitionsRejectsOutOfBoundsDuration(t *testing.T) {
	sorted := []timeline.Clip{clip(1, 0, 0, 5, 0), clip(2, 5, 0, 5, 0)}
	trs := []timeline.Transition{{ID: 1, ClipIDBefore: 1, ClipIDAfter: 2, Kind: timeline.Fade, Duration: 10}}
	_, err := indexTransitions(sorted, trs)
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, err.(*Error).Kind)
}

func TestIndexTransitionsRejectsDuplicatePair(t *testing.T) {
	sorted := []timeline.Clip{clip(1, 0, 0, 5, 0), clip(2, 5, 0, 5, 0)}
	trs := []timeline.Transition{
		{ID: 1, ClipIDBefore: 1, ClipIDAfter: 2, Kind: timeline.Fade, Duration: 1},
		{ID: 2, ClipIDBefore: 1, ClipIDAfter: 2, Kind: timeline.Dissolve, Duration: 1},
	}
	_, err := indexTransitions(sorted, trs)
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, err.(*Error).Kind)
}

func TestClassifyFastConcat(t *testing.T) {
	sorted := []timeline.Clip{clip(1, 0, 0, 5, 0), clip(2, 5, 0, 5, 0)}
	assert.Equal(t, FastConcat, classify(sorted, nil))
}

func TestClassifyWithTransitions(t *testing.T) {
	sorted := []timeline.Clip{clip(1, 0, 0, 5, 0), clip(2, 5, 0, 5, 0)}
	trs := map[pairKey]timeline.Transition{{1, 2}: {ID: 1, ClipIDBefore: 1, ClipIDAfter: 2, Kind: timeline.Fade, Duration: 1}}
	assert.Equal(t, WithTransitions, classify(sorted, trs))
}

func TestClassifyMultiTrack(t *testing.T) {
	sorted := []timeline.Clip{clip(1, 0, 0, 10, 0), clip(2, 2, 0, 3, 1)}
	assert.Equal(t, MultiTrack, classify(sorted, nil))
}

func TestClassifyMultiTrackTakesPrecedenceOverTransitions(t *testing.T) {
	sorted := []timeline.Clip{clip(1, 0, 0, 10, 0), clip(2, 2, 0, 3, 1)}
	trs := map[pairKey]timeline.Transition{{1, 2}: {ID: 1, ClipIDBefore: 1, ClipIDAfter: 2, Kind: timeline.Fade, Duration: 1}}
	assert.Equal(t, MultiTrack, classify(sorted, trs))
}

func TestRenderSourceMissing(t *testing.T) {
	runner := &fakeRunner{}
	p, _ := newTestPlanner(runner) // no sources written
	clips := []timeline.Clip{clip(1, 0, 0, 5, 0)}
	_, err := p.Render(context.Background(), clips, nil, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.Error(t, err)
	assert.Equal(t, KindSourceMissing, err.(*Error).Kind)
}

func TestRenderFastConcatEndToEnd(t *testing.T) {
	runner := &fakeRunner{probe: toolchain.VideoMetadata{Width: 1920, Height: 1080}}
	p, _ := newTestPlanner(runner, "/src/clip.mp4")
	clips := []timeline.Clip{
		clip(1, 0, 0, 5, 0),
		clip(2, 5, 0, 5, 0),
	}
	out, err := p.Render(context.Background(), clips, nil, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "/out/out.mp4", out)
	assert.Equal(t, float64(100), p.Progress.Get().Percentage)
}

func TestRenderWithTransitionsEndToEnd(t *testing.T) {
	runner := &fakeRunner{probe: toolchain.VideoMetadata{Width: 1280, Height: 720}}
	p, _ := newTestPlanner(runner, "/src/clip.mp4")
	clips := []timeline.Clip{
		clip(1, 0, 0, 5, 0),
		clip(2, 5, 0, 5, 0),
	}
	trs := []timeline.Transition{{ID: 1, ClipIDBefore: 1, ClipIDAfter: 2, Kind: timeline.Crossfade, Duration: 1}}
	out, err := p.Render(context.Background(), clips, trs, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "/out/out.mp4", out)
}

func TestRenderMultiTrackEndToEnd(t *testing.T) {
	runner := &fakeRunner{probe: toolchain.VideoMetadata{Width: 1280, Height: 720}}
	p, _ := newTestPlanner(runner, "/src/clip.mp4")
	clips := []timeline.Clip{
		clip(1, 0, 0, 10, 0),
		clip(2, 2, 0, 3, 1),
	}
	out, err := p.Render(context.Background(), clips, nil, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.NoError(t, err)
	assert.Equal(t, "/out/out.mp4", out)
}

func TestRenderMultiTrackRequiresBaseTrack(t *testing.T) {
	runner := &fakeRunner{probe: toolchain.VideoMetadata{Width: 1280, Height: 720}}
	p, _ := newTestPlanner(runner, "/src/clip.mp4")
	clips := []timeline.Clip{
		clip(1, 0, 1, 10, 1),
		clip(2, 2, 1, 3, 2),
	}
	_, err := p.Render(context.Background(), clips, nil, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.Error(t, err)
	assert.Equal(t, KindMissingBaseTrack, err.(*Error).Kind)
}

func TestRenderCleansUpIntermediatesOnSuccess(t *testing.T) {
	runner := &fakeRunner{probe: toolchain.VideoMetadata{Width: 1280, Height: 720}}
	p, fs := newTestPlanner(runner, "/src/clip.mp4")
	clips := []timeline.Clip{clip(1, 0, 0, 5, 0)}
	_, err := p.Render(context.Background(), clips, nil, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.NoError(t, err)

	entries, err := afero.ReadDir(fs, "/tmp/clipforge_export")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderRejectsConcurrentCall(t *testing.T) {
	runner := &fakeRunner{probe: toolchain.VideoMetadata{Width: 1280, Height: 720}}
	p, _ := newTestPlanner(runner, "/src/clip.mp4")
	p.busy.Store(true)

	clips := []timeline.Clip{clip(1, 0, 0, 5, 0)}
	_, err := p.Render(context.Background(), clips, nil, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.Error(t, err)
	assert.Equal(t, KindLockFailure, err.(*Error).Kind)
}

func TestRenderCleansUpIntermediatesOnFailure(t *testing.T) {
	runner := &fakeRunner{probe: toolchain.VideoMetadata{Width: 1280, Height: 720}, failAt: "-y"}
	p, fs := newTestPlanner(runner, "/src/clip.mp4")
	clips := []timeline.Clip{clip(1, 0, 0, 5, 0)}
	_, err := p.Render(context.Background(), clips, nil, nil, timeline.ExportSettings{OutputPath: "/out/out.mp4"})
	require.Error(t, err)
	assert.Equal(t, KindToolchainFailure, err.(*Error).Kind)

	entries, err := afero.ReadDir(fs, "/tmp/clipforge_export")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
