package ports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MapFileName is the worktree-relative path of the persisted port map.
const MapFileName = ".orbit/ports.json"

// WriteMapFile persists m into worktree as MapFileName, replacing any
// previous file atomically.
func WriteMapFile(worktree string, m Map) error {
	path := filepath.Join(worktree, MapFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding port map: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ports-*.json")
	if err != nil {
		return fmt.Errorf("writing port map: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing port map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing port map: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing port map: %w", err)
	}
	return nil
}

// ReadMapFile loads the port map persisted in worktree.
func ReadMapFile(worktree string) (Map, error) {
	var m Map
	data, err := os.ReadFile(filepath.Join(worktree, MapFileName))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", MapFileName, err)
	}
	return m, nil
}
