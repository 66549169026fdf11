package planner

import (
	"context"
	"fmt"

	"github.com/GCUGrayArea/clipforge/internal/filtergraph"
	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/GCUGrayArea/clipforge/internal/workdir"
)

// trimAll trims every clip in order, reporting progress linearly across
// [lo, hi) as it goes.
func (p *Planner) trimAll(ctx context.Context, clips []timeline.Clip, dir *workdir.Dir, lo, hi float64) ([]string, error) {
	out := make([]string, len(clips))
	for i, c := range clips {
		trimmed, err := p.trimClip(ctx, dir, i, c)
		if err != nil {
			return nil, err
		}
		out[i] = trimmed
		p.Progress.Set(lo+(hi-lo)*float64(i+1)/float64(len(clips)), "trimming", nil)
	}
	return out, nil
}

// drawtextOnlyFilter joins one drawtext filter per overlay with no
// accompanying scale — used downstream of a stage that has already
// normalized frame size (With-Transitions' second pass).
func drawtextOnlyFilter(overlays []timeline.TextOverlay) string {
	if len(overlays) == 0 {
		return ""
	}
	s := ""
	for i, o := range overlays {
		if i > 0 {
			s += ","
		}
		s += filtergraph.DrawText(o)
	}
	return s
}

// renderFastConcat implements the Fast-Concat path: trim, concat-demux,
// one encode pass.
func (p *Planner) renderFastConcat(ctx context.Context, clips []timeline.Clip, overlays []timeline.TextOverlay, settings timeline.ExportSettings, dir *workdir.Dir, lo, hi float64) (string, error) {
	span := hi - lo
	trimmed, err := p.trimAll(ctx, clips, dir, lo, lo+span*0.4)
	if err != nil {
		return "", err
	}

	listPath, err := writeConcatList(dir, "concat_list.txt", trimmed)
	if err != nil {
		return "", err
	}
	p.Progress.Set(lo+span*0.5, "concatenating", nil)

	width, height := p.resolvedFrameSize(ctx, clips, settings)
	vf := scaleAndDrawtextFilter(width, height, overlays)

	argv := []string{"-f", "concat", "-safe", "0", "-i", listPath, "-vf", vf}
	argv = append(argv, encodeSuffix(settings.OutputPath)...)
	if err := p.runToolchain(ctx, "concat_encode", argv); err != nil {
		return "", err
	}
	p.Progress.Set(lo+span*0.95, "encoding", nil)
	return settings.OutputPath, nil
}

// buildGap looks up the transition (if any) declared between two
// adjacent sorted clips.
func buildGap(before, after timeline.Clip, transitions map[pairKey]timeline.Transition) filtergraph.PairGap {
	tr, ok := transitions[pairKey{before.ID, after.ID}]
	if !ok {
		return filtergraph.PairGap{}
	}
	return filtergraph.PairGap{HasTransition: true, Kind: tr.Kind, Duration: tr.Duration}
}

// composeTransitionGraph builds the shared Normalize+xfade+acrossfade
// filter_complex used by both With-Transitions and Multi-Track's
// multi-clip base track, mapping to [vout]/[aout].
func composeTransitionGraph(trimmedClips []timeline.Clip, transitions map[pairKey]timeline.Transition, width, height int) (string, error) {
	n := len(trimmedClips)
	durations := make([]float64, n)
	var normalizeParts []string
	for i, c := range trimmedClips {
		durations[i] = c.Duration()
		normalizeParts = append(normalizeParts, filtergraph.Normalize(i, width, height, fmt.Sprintf("vin%d", i)))
		normalizeParts = append(normalizeParts, fmt.Sprintf(
			"[%d:a]aformat=sample_fmts=fltp:sample_rates=44100:channel_layouts=stereo[ain%d]", i, i))
	}

	gaps := make([]filtergraph.PairGap, n-1)
	for i := 0; i < n-1; i++ {
		gaps[i] = buildGap(trimmedClips[i], trimmedClips[i+1], transitions)
	}

	videoChain, _, err := filtergraph.VideoXfadeChain(durations, gaps)
	if err != nil {
		return "", err
	}
	audioChain, _, err := filtergraph.AudioCrossfadeChain(durations, gaps)
	if err != nil {
		return "", err
	}

	graph := joinGraphParts(normalizeParts)
	graph += ";" + videoChain + ";" + audioChain
	return graph, nil
}

func joinGraphParts(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ";"
		}
		out += p
	}
	return out
}

// renderWithTransitions implements the With-Transitions path: trim,
// compose one normalize+xfade+acrossfade graph to an intermediate, then
// a second pass applies resolution/drawtext and the final encode.
func (p *Planner) renderWithTransitions(ctx context.Context, clips []timeline.Clip, transitions map[pairKey]timeline.Transition, overlays []timeline.TextOverlay, settings timeline.ExportSettings, dir *workdir.Dir, lo, hi float64) (string, error) {
	span := hi - lo
	trimmedPaths, err := p.trimAll(ctx, clips, dir, lo, lo+span*0.3)
	if err != nil {
		return "", err
	}

	width, height := p.resolvedFrameSize(ctx, clips, settings)

	if len(clips) == 1 {
		// Nothing to cross-fade; fall through to a direct encode of the
		// single trimmed clip with the requested resolution/drawtext.
		vf := scaleAndDrawtextFilter(width, height, overlays)
		argv := []string{"-i", trimmedPaths[0], "-vf", vf}
		argv = append(argv, encodeSuffix(settings.OutputPath)...)
		if err := p.runToolchain(ctx, "single_clip_encode", argv); err != nil {
			return "", err
		}
		p.Progress.Set(hi, "encoding", nil)
		return settings.OutputPath, nil
	}

	graph, err := composeTransitionGraph(clips, transitions, width, height)
	if err != nil {
		return "", errInvalidTransition(err.Error())
	}
	p.Progress.Set(lo+span*0.5, "compositing", nil)

	intermediate := dir.Path("transition_composite.mp4")
	argv := inputArgs(trimmedPaths)
	argv = append(argv, "-filter_complex", graph, "-map", "[vout]", "-map", "[aout]",
		"-c:v", "libx264", "-crf", "18", "-c:a", "aac", "-b:a", "192k", "-y", intermediate)
	if err := p.runToolchain(ctx, "transition_composite", argv); err != nil {
		return "", err
	}
	p.Progress.Set(lo+span*0.75, "compositing", nil)

	vf := drawtextOnlyFilter(overlays)
	finalArgv := []string{"-i", intermediate}
	if vf != "" {
		finalArgv = append(finalArgv, "-vf", vf)
	}
	finalArgv = append(finalArgv, encodeSuffix(settings.OutputPath)...)
	if err := p.runToolchain(ctx, "final_encode", finalArgv); err != nil {
		return "", err
	}
	p.Progress.Set(hi, "encoding", nil)
	return settings.OutputPath, nil
}

// inputArgs expands a list of file paths into repeated `-i path` flags
// in ffmpeg -i ordinal order.
func inputArgs(paths []string) []string {
	var argv []string
	for _, p := range paths {
		argv = append(argv, "-i", p)
	}
	return argv
}

// renderMultiTrack implements the Multi-Track path: track 0 is always
// the base (built via Fast-Concat or the transition graph, whichever
// its own clips require), every other track overlays it
// picture-in-picture with its own optional audio mixed in.
func (p *Planner) renderMultiTrack(ctx context.Context, clips []timeline.Clip, transitions map[pairKey]timeline.Transition, overlays []timeline.TextOverlay, settings timeline.ExportSettings, dir *workdir.Dir) (string, error) {
	var baseClips, overlayClips []timeline.Clip
	for _, c := range clips {
		if c.Track == 0 {
			baseClips = append(baseClips, c)
		} else {
			overlayClips = append(overlayClips, c)
		}
	}
	if len(baseClips) == 0 {
		return "", errMissingBaseTrack()
	}

	trimmedBase, err := p.trimAll(ctx, baseClips, dir, 0, 25)
	if err != nil {
		return "", err
	}
	trimmedOverlays, err := p.trimAll(ctx, overlayClips, dir, 25, 45)
	if err != nil {
		return "", err
	}

	baseOffset := baseClips[0].StartTime
	width, height := p.resolvedFrameSize(ctx, clips, settings)

	var baseVideo string
	switch {
	case len(baseClips) == 1:
		baseVideo = trimmedBase[0]
	case hasAnyTransition(baseClips, transitions):
		graph, gErr := composeTransitionGraph(baseClips, transitions, width, height)
		if gErr != nil {
			return "", errInvalidTransition(gErr.Error())
		}
		baseVideo = dir.Path("base_video.mp4")
		argv := inputArgs(trimmedBase)
		argv = append(argv, "-filter_complex", graph, "-map", "[vout]", "-map", "[aout]",
			"-c:v", "libx264", "-crf", "18", "-c:a", "aac", "-b:a", "192k", "-y", baseVideo)
		if err := p.runToolchain(ctx, "base_composite", argv); err != nil {
			return "", err
		}
	default:
		listPath, lErr := writeConcatList(dir, "base_concat_list.txt", trimmedBase)
		if lErr != nil {
			return "", lErr
		}
		baseVideo = dir.Path("base_video.mp4")
		argv := []string{"-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", "-y", baseVideo}
		if err := p.runToolchain(ctx, "base_concat", argv); err != nil {
			return "", err
		}
	}
	p.Progress.Set(55, "compositing", nil)

	inputs := append([]string{baseVideo}, trimmedOverlays...)
	var steps []filtergraph.OverlayStep
	var overlayInputIndices []int
	for i, c := range overlayClips {
		idx := i + 1
		steps = append(steps, filtergraph.OverlayStep{
			InputIndex: idx,
			StartTime:  c.StartTime - baseOffset,
			EndTime:    c.TimelineEnd() - baseOffset,
		})
		overlayInputIndices = append(overlayInputIndices, idx)
	}

	graph := filtergraph.OverlayChain(steps) + ";" + filtergraph.AmixChain(overlayInputIndices, "aout")
	intermediate := dir.Path("overlay_composite.mp4")
	argv := inputArgs(inputs)
	argv = append(argv, "-filter_complex", graph, "-map", "[out]", "-map", "[aout]",
		"-c:v", "libx264", "-crf", "18", "-c:a", "aac", "-b:a", "192k", "-y", intermediate)
	if err := p.runToolchain(ctx, "overlay_composite", argv); err != nil {
		return "", err
	}
	p.Progress.Set(80, "compositing", nil)

	vf := scaleAndDrawtextFilter(width, height, overlays)
	finalArgv := []string{"-i", intermediate, "-vf", vf}
	finalArgv = append(finalArgv, encodeSuffix(settings.OutputPath)...)
	if err := p.runToolchain(ctx, "final_encode", finalArgv); err != nil {
		return "", err
	}
	p.Progress.Set(100, "encoding", nil)
	return settings.OutputPath, nil
}

func hasAnyTransition(clips []timeline.Clip, transitions map[pairKey]timeline.Transition) bool {
	for i := 0; i < len(clips)-1; i++ {
		if _, ok := transitions[pairKey{clips[i].ID, clips[i+1].ID}]; ok {
			return true
		}
	}
	return false
}
