package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <path>",
	Short: "Probe a media file and print its VideoMetadata as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv()
		if err != nil {
			return err
		}

		meta, err := e.adapter.Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	},
}
