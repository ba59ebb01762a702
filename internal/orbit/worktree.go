package orbit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"orbit/internal/git"
)

const ignoreEntry = ".orbit/"

// ensureIgnored makes sure the worktree's .gitignore lists .orbit/, creating
// the file if needed.
func ensureIgnored(worktree string) error {
	path := filepath.Join(worktree, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case ".orbit", ".orbit/", "/.orbit", "/.orbit/":
			return nil
		}
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(ignoreEntry + "\n")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// syncUntracked symlinks untracked files of source into worktree when the
// basename of the file, or of one of its ancestor directories, matches a
// pattern. The shallowest matching ancestor is linked as a whole, so
// "node_modules" links the directory rather than every file in it. Existing
// paths in the worktree are left alone.
func syncUntracked(ctx context.Context, g git.Client, source, worktree string, patterns []string) ([]string, error) {
	files, err := g.UntrackedFiles(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("listing untracked files in %s: %w", source, err)
	}

	seen := make(map[string]bool)
	var synced []string
	for _, file := range files {
		matched := matchShallowest(file, patterns)
		if matched == "" || seen[matched] {
			continue
		}
		seen[matched] = true

		dst := filepath.Join(worktree, matched)
		if _, err := os.Lstat(dst); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return synced, err
		}
		if err := os.Symlink(filepath.Join(source, matched), dst); err != nil {
			return synced, fmt.Errorf("linking %s: %w", matched, err)
		}
		synced = append(synced, matched)
	}
	return synced, nil
}

func matchShallowest(file string, patterns []string) string {
	parts := strings.Split(filepath.ToSlash(file), "/")
	for i := range parts {
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, parts[i]); ok {
				return filepath.Join(parts[:i+1]...)
			}
		}
	}
	return ""
}
