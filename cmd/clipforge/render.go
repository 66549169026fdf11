package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/GCUGrayArea/clipforge/internal/planner"
	"github.com/GCUGrayArea/clipforge/internal/progress"
	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/spf13/cobra"
)

// renderRequest is the on-disk shape of a `clipforge render` argument:
// the clip/transition/overlay timeline plus export settings.
type renderRequest struct {
	Clips        []timeline.Clip         `json:"clips"`
	Transitions  []timeline.Transition   `json:"transitions"`
	TextOverlays []timeline.TextOverlay  `json:"text_overlays"`
	Export       timeline.ExportSettings `json:"export_settings"`
}

var renderCmd = &cobra.Command{
	Use:   "render <timeline.json>",
	Short: "Render a timeline to its configured output file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read timeline: %w", err)
		}
		var req renderRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return fmt.Errorf("parse timeline: %w", err)
		}

		e, err := buildEnv()
		if err != nil {
			return err
		}

		prog := progress.New()
		p := planner.New(e.adapter, e.fs, e.tempRoot(), prog, e.log)

		out, err := p.Render(cmd.Context(), req.Clips, req.Transitions, req.TextOverlays, req.Export)
		snap := prog.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "stage=%s percentage=%.1f\n", snap.Stage, snap.Percentage)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}
