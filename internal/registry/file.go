package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"orbit/pkg/logging"
)

const lockRetryDelay = 50 * time.Millisecond

// FileRegistry stores State as JSON at Path, guarded by Path+".lock".
type FileRegistry struct {
	Path string
}

// NewFileRegistry returns a registry backed by path.
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{Path: path}
}

func (r *FileRegistry) lockPath() string {
	return r.Path + ".lock"
}

func (r *FileRegistry) lock(ctx context.Context, exclusive bool) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating registry dir: %w", err)
	}
	fl := flock.New(r.lockPath())

	var locked bool
	var err error
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring registry lock %s: %w", r.lockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("acquiring registry lock %s: not acquired", r.lockPath())
	}
	return fl, nil
}

// Load reads the registry under a shared lock.
func (r *FileRegistry) Load(ctx context.Context) (*State, error) {
	fl, err := r.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fl.Unlock() }()

	return r.read()
}

// Update reads, mutates and rewrites the registry under an exclusive lock.
func (r *FileRegistry) Update(ctx context.Context, fn func(*State) error) error {
	fl, err := r.lock(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = fl.Unlock() }()

	state, err := r.read()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return r.write(state)
}

func (r *FileRegistry) read() (*State, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	state := NewState()
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, r.Path, err)
	}
	state.ensure()
	for name, o := range state.Orbits {
		if o.Name != name {
			return nil, fmt.Errorf("%w: entry %q has name %q", ErrCorruptState, name, o.Name)
		}
	}
	return state, nil
}

func (r *FileRegistry) write(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := os.Rename(tmpName, r.Path); err != nil {
		return fmt.Errorf("replacing registry: %w", err)
	}

	logging.Debug("Registry", "wrote %d orbit(s) to %s", len(state.Orbits), r.Path)
	return nil
}
