// Command clipforge is the CLI entry point, exposing the Composition
// Planner both as direct subcommands and as a net/http worker process
// for a supervising host to drive.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagFFmpegPath string
	flagDataDir    string
)

var rootCmd = &cobra.Command{
	Use:   "clipforge",
	Short: "Render non-linear video timelines with ffmpeg",
	Long: `clipforge renders a clip/transition/overlay timeline into a single
output file, choosing the cheapest ffmpeg strategy the timeline allows
(straight concat, cross-fades, or picture-in-picture compositing).`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "clipforge.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagFFmpegPath, "ffmpeg", "", "path to the ffmpeg binary (sets FFMPEG_PATH; ffprobe is resolved separately)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", ".", "root directory for work directories")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
