package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"path/filepath"

	"github.com/GCUGrayArea/clipforge/internal/audiomerger"
	"github.com/GCUGrayArea/clipforge/internal/planner"
	"github.com/GCUGrayArea/clipforge/internal/progress"
	"github.com/GCUGrayArea/clipforge/internal/timeline"
	"github.com/GCUGrayArea/clipforge/internal/workdir"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP worker (POST /render, GET /progress, POST /merge-audio, GET /health)",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := buildEnv()
		if err != nil {
			return err
		}

		prog := progress.New()
		p := planner.New(e.adapter, e.fs, e.tempRoot(), prog, e.log)
		m := audiomerger.New(e.adapter, progress.New(), e.log)

		mux := http.NewServeMux()
		mux.HandleFunc("GET /health", handleHealth)
		mux.HandleFunc("POST /render", handleRenderHTTP(p))
		mux.HandleFunc("GET /progress", handleProgress(prog))
		mux.HandleFunc("POST /merge-audio", handleMergeAudio(m, e.fs, e.tempRoot(), e.log))

		listener, err := net.Listen("tcp", ":0")
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		port := listener.Addr().(*net.TCPAddr).Port

		// Printed for a parent process (e.g. a desktop shell) to read.
		fmt.Printf("PORT:%d\n", port)
		e.log.Info().Int("port", port).Msg("clipforge worker listening")

		return http.Serve(listener, mux)
	},
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleRenderHTTP(p *planner.Planner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req renderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out, err := p.Render(r.Context(), req.Clips, req.Transitions, req.TextOverlays, req.Export)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"output_path": out})
	}
}

func handleProgress(prog *progress.Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prog.Get())
	}
}

// mergeAudioRequest is the POST /merge-audio body: the clips to merge
// and the output WAV path.
type mergeAudioRequest struct {
	Clips      []timeline.Clip `json:"clips"`
	OutputPath string          `json:"output_path"`
}

func handleMergeAudio(m *audiomerger.Merger, fs afero.Fs, tempRoot string, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mergeAudioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		root := filepath.Join(tempRoot, "clipforge_audiomerge", uuid.NewString())
		dir, err := workdir.Open(fs, root)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer func() {
			if errs := dir.Cleanup(); len(errs) > 0 {
				log.Warn().Errs("cleanup_errors", errs).Msg("merge-audio cleanup had errors")
			}
		}()

		model, err := m.Merge(r.Context(), req.Clips, dir, req.OutputPath)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"output_path": req.OutputPath,
			"mappings":    model.Mappings,
		})
	}
}
