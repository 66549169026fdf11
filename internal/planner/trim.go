package planner

import (
	"context"
	"fmt"

	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/GCUGrayArea/clipforge/internal/workdir"
)

// trimClip extracts one clip's [InPoint, OutPoint) window into its own
// file. Clips whose audio params are all default get a codec-copy trim;
// any other clip is re-encoded so volume/mute/fade can be applied.
func (p *Planner) trimClip(ctx context.Context, dir *workdir.Dir, ordinal int, c timeline.Clip) (string, error) {
	out := dir.Path(fmt.Sprintf("clip_%d_trimmed.mp4", ordinal))

	argv := []string{
		"-ss", trimSeconds(c.InPoint),
		"-t", trimSeconds(c.Duration()),
		"-i", c.Source,
	}

	if !c.NeedsAudioFilter() {
		argv = append(argv, "-c", "copy", "-y", out)
		if err := p.runToolchain(ctx, "trim", argv); err != nil {
			return "", err
		}
		return out, nil
	}

	filter := audioFilterChain(c)
	argv = append(argv, "-af", filter, "-c:v", "copy", "-c:a", "aac", "-b:a", "192k", "-y", out)
	if err := p.runToolchain(ctx, "trim", argv); err != nil {
		return "", err
	}
	return out, nil
}

// audioFilterChain builds the volume/mute/fade chain for one clip:
// muting wins over an explicit volume, fades are applied after the
// level change.
func audioFilterChain(c timeline.Clip) string {
	var vol string
	if c.IsMuted {
		vol = "volume=0"
	} else {
		vol = fmt.Sprintf("volume=%s", trimSeconds(c.Volume/100))
	}

	chain := vol
	if c.FadeInDuration > 0 {
		chain += fmt.Sprintf(",afade=t=in:st=0:d=%s", trimSeconds(c.FadeInDuration))
	}
	if c.FadeOutDuration > 0 {
		fadeStart := c.Duration() - c.FadeOutDuration
		if fadeStart < 0 {
			fadeStart = 0
		}
		chain += fmt.Sprintf(",afade=t=out:st=%s:d=%s", trimSeconds(fadeStart), trimSeconds(c.FadeOutDuration))
	}
	return chain
}

func trimSeconds(f float64) string {
	return fmt.Sprintf("%.3f", f)
}
