package main

import (
	"os"
	"path/filepath"

	"github.com/GCUGrayArea/clipforge/internal/config"
	"github.com/GCUGrayArea/clipforge/internal/logging"
	"github.com/GCUGrayArea/clipforge/internal/toolchain"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// env bundles the collaborators every subcommand needs, built once from
// the persistent flags before dispatching to a subcommand's handler.
type env struct {
	cfg     config.Config
	log     zerolog.Logger
	fs      afero.Fs
	adapter *toolchain.Adapter
}

func buildEnv() (*env, error) {
	if flagFFmpegPath != "" {
		os.Setenv("FFMPEG_PATH", flagFFmpegPath)
	}

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "." {
		cfg.DataDir = flagDataDir
	}

	log := logging.New(os.Stderr)

	adapter, err := toolchain.New(log)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, log: log, fs: afero.NewOsFs(), adapter: adapter}, nil
}

// tempRoot is the root work directories are created under: system temp
// by default, or data_dir/work_dir_name when a data directory override
// was given.
func (e *env) tempRoot() string {
	if e.cfg.DataDir == "." || e.cfg.DataDir == "" {
		return os.TempDir()
	}
	return filepath.Join(e.cfg.DataDir, e.cfg.WorkDirName)
}
