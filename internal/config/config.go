// Package config loads ClipForge's static app configuration and
// secrets: a YAML file first, then .env-sourced overrides, with flags
// taking final precedence above this package.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TranscriptionAPIKeyEnv is the environment variable the transcription
// subsystem reads its API key from; its absence is a user-visible
// failure distinct from Planner errors.
const TranscriptionAPIKeyEnv = "CLIPFORGE_TRANSCRIPTION_API_KEY"

// Config is ClipForge's static application configuration.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	FFmpegPath string `yaml:"ffmpeg_path"`
	WorkDirName string `yaml:"work_dir_name"`
}

// Default returns the factory configuration.
func Default() Config {
	return Config{
		DataDir:     ".",
		WorkDirName: "clipforge_export",
	}
}

// Load reads a YAML config file if present, then applies .env-sourced
// overrides (FFMPEG_PATH), falling back to Default() values for
// anything unset. A missing file is not an error — callers get the
// Default() values either way.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, err
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	_ = godotenv.Load() // best-effort; absence of .env is not an error

	if p := os.Getenv("FFMPEG_PATH"); p != "" {
		cfg.FFmpegPath = p
	}
	if cfg.WorkDirName == "" {
		cfg.WorkDirName = "clipforge_export"
	}
	return cfg, nil
}

// TranscriptionAPIKey reads the transcription API key from the
// environment, returning ok=false when it is absent.
func TranscriptionAPIKey() (key string, ok bool) {
	key = os.Getenv(TranscriptionAPIKeyEnv)
	return key, key != ""
}
