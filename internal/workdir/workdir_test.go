package workdir

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupRemovesEveryTrackedPathAndRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	d, err := Open(fs, "/tmp/clipforge_export")
	require.NoError(t, err)

	_, err = d.WriteFile("clip_0_trimmed.mp4", []byte("data"))
	require.NoError(t, err)
	_, err = d.WriteFile("clip_1_trimmed.mp4", []byte("data"))
	require.NoError(t, err)

	exists, _ := afero.DirExists(fs, "/tmp/clipforge_export")
	require.True(t, exists)

	errs := d.Cleanup()
	assert.Empty(t, errs)

	exists, _ = afero.DirExists(fs, "/tmp/clipforge_export")
	assert.False(t, exists)
}

func TestCleanupIsBestEffortOnMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	d, err := Open(fs, "/tmp/clipforge_export")
	require.NoError(t, err)

	p := d.Path("ghost.mp4") // tracked but never actually written
	_ = p

	errs := d.Cleanup()
	// Removing a nonexistent tracked file is an error on afero's MemMapFs;
	// Cleanup must still proceed to remove the root directory regardless.
	exists, _ := afero.DirExists(fs, "/tmp/clipforge_export")
	assert.False(t, exists)
	_ = errs
}

func TestForgetExcludesFromCleanup(t *testing.T) {
	fs := afero.NewMemMapFs()
	d, err := Open(fs, "/tmp/clipforge_export")
	require.NoError(t, err)

	p, err := d.WriteFile("keep.mp4", []byte("x"))
	require.NoError(t, err)
	d.Forget(p)

	d.Cleanup()
	exists, _ := afero.Exists(fs, p)
	assert.True(t, exists, "forgotten path must survive Cleanup")
}
