// Package toolchain resolves and invokes the external probe/transcoder
// binaries (ffprobe/ffmpeg) the Composition Planner depends on,
// preferring a managed local binary before falling back to PATH.
package toolchain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Kind distinguishes a probe from a transcode invocation in error reporting.
type Kind string

const (
	Probe     Kind = "probe"
	Transcode Kind = "transcode"
)

// Failure reports a non-zero exit from an external process.
type Failure struct {
	Stage  Kind
	Stderr string
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failed: %v\n%s", f.Stage, f.Err, f.Stderr)
}

func (f *Failure) Unwrap() error { return f.Err }

// VideoMetadata is the subset of ffprobe's output the Planner needs.
type VideoMetadata struct {
	Duration    float64
	Width       int
	Height      int
	Container   string
	VideoCodec  string
	FPS         float64
	Bitrate     int64 // 0 when unavailable
	AudioCodec  string // "" when no audio stream
	FileSize    int64
}

// Adapter resolves the ffmpeg/ffprobe binaries once and runs them.
type Adapter struct {
	log zerolog.Logger

	ffmpegPath  string
	ffprobePath string
}

// New resolves ffmpeg/ffprobe once, at construction: first a local binaries/<name>
// next to the running executable, then the bare name on PATH. Either
// name may be overridden by the FFMPEG_PATH / FFPROBE_PATH environment
// variables.
func New(log zerolog.Logger) (*Adapter, error) {
	ffmpeg, err := resolveBinary("ffmpeg", "FFMPEG_PATH")
	if err != nil {
		return nil, err
	}
	ffprobe, err := resolveBinary("ffprobe", "FFPROBE_PATH")
	if err != nil {
		return nil, err
	}
	return &Adapter{log: log, ffmpegPath: ffmpeg, ffprobePath: ffprobe}, nil
}

func resolveBinary(name, envVar string) (string, error) {
	if p := os.Getenv(envVar); p != "" {
		return p, nil
	}
	if exe, err := os.Executable(); err == nil {
		local := filepath.Join(filepath.Dir(exe), "binaries", binaryName(name))
		if info, statErr := os.Stat(local); statErr == nil && !info.IsDir() {
			return local, nil
		}
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found locally or on PATH: %w", name, err)
	}
	return path, nil
}

func binaryName(name string) string {
	if filepath.Ext(name) != "" {
		return name
	}
	return name
}

// Run invokes the transcoder with argv, returning stdout on success or a
// *Failure carrying stderr on non-zero exit.
func (a *Adapter) Run(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, a.ffmpegPath, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	a.log.Info().Strs("argv", argv).Msg("invoking transcoder")
	if err := cmd.Run(); err != nil {
		return "", &Failure{Stage: Transcode, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// ffprobeOutput mirrors ffprobe -print_format json -show_format -show_streams.
type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
}

type ffprobeFormat struct {
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// Probe runs ffprobe against path and parses the result into VideoMetadata.
func (a *Adapter) Probe(ctx context.Context, path string) (VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, a.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return VideoMetadata{}, &Failure{Stage: Probe, Stderr: stderr.String(), Err: err}
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &probe); err != nil {
		return VideoMetadata{}, &Failure{Stage: Probe, Stderr: stderr.String(), Err: err}
	}

	var videoStream, audioStream *ffprobeStream
	for i := range probe.Streams {
		s := &probe.Streams[i]
		switch s.CodecType {
		case "video":
			if videoStream == nil {
				videoStream = s
			}
		case "audio":
			if audioStream == nil {
				audioStream = s
			}
		}
	}

	meta := VideoMetadata{Container: probe.Format.FormatName}
	meta.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	if sz, err := strconv.ParseInt(probe.Format.Size, 10, 64); err == nil {
		meta.FileSize = sz
	}
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		meta.Bitrate = br
	}
	if videoStream != nil {
		meta.Width = videoStream.Width
		meta.Height = videoStream.Height
		meta.VideoCodec = videoStream.CodecName
		meta.FPS = parseFrameRate(videoStream.RFrameRate)
	}
	if audioStream != nil {
		meta.AudioCodec = audioStream.CodecName
	}
	return meta, nil
}

// parseFrameRate parses ffprobe's "num/den" r_frame_rate, defaulting to
// 30.0 on any parse failure.
func parseFrameRate(raw string) float64 {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return 30.0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 30.0
	}
	return num / den
}
