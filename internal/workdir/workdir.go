// Package workdir manages the per-render scoped work directory and the
// intermediate files created inside it. Filesystem access goes through
// afero.Fs so cleanup-on-every-exit-path is unit-testable against an
// in-memory filesystem instead of touching real disk.
package workdir

import (
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Dir is a render-scoped working directory. It tracks every path handed
// out via Path/WriteFile so Cleanup can remove them even if the caller
// loses track of one on an error path.
type Dir struct {
	fs   afero.Fs
	root string

	mu        sync.Mutex
	tracked   []string
	forgotten bool
}

// Open creates (or reuses) root on fs and returns a Dir scoped to it.
// root is typically system-temp joined with "clipforge_export/<uuid>".
func Open(fs afero.Fs, root string) (*Dir, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Dir{fs: fs, root: root}, nil
}

// Root returns the directory's absolute path.
func (d *Dir) Root() string { return d.root }

// Path joins name onto the work directory root and tracks it as an
// intermediate owned by this render.
func (d *Dir) Path(name string) string {
	p := filepath.Join(d.root, name)
	d.mu.Lock()
	d.tracked = append(d.tracked, p)
	d.mu.Unlock()
	return p
}

// WriteFile writes data to Path(name), tracking it for cleanup.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	p := d.Path(name)
	if err := afero.WriteFile(d.fs, p, data, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// Forget removes path from the tracked set without deleting it — used
// when ownership of an intermediate transfers elsewhere (none of the
// current strategies need this, but it keeps Dir's bookkeeping honest
// if a future strategy hands an intermediate to the caller).
func (d *Dir) Forget(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, p := range d.tracked {
		if p == path {
			d.tracked = append(d.tracked[:i], d.tracked[i+1:]...)
			d.forgotten = true
			return
		}
	}
}

// Cleanup removes every tracked intermediate and the root directory
// itself, best-effort: a removal failure is collected but does not stop
// the remaining removals, and cleanup errors never mask the primary
// render result. Once any path has been passed to Forget, the root is
// removed with a plain Remove rather than recursively, so a forgotten
// file inside it is kept.
func (d *Dir) Cleanup() []error {
	d.mu.Lock()
	tracked := d.tracked
	forgotten := d.forgotten
	d.tracked = nil
	d.mu.Unlock()

	var errs []error
	for _, p := range tracked {
		if err := d.fs.Remove(p); err != nil {
			errs = append(errs, err)
		}
	}
	removeRoot := d.fs.RemoveAll
	if forgotten {
		removeRoot = d.fs.Remove
	}
	if err := removeRoot(d.root); err != nil {
		errs = append(errs, err)
	}
	return errs
}
