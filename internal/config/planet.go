package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DetectPlanet returns the planet containing dir. Nested planets resolve to
// the deepest match.
func DetectPlanet(config Config, dir string) (*Planet, error) {
	resolvedDir := resolvePath(dir)

	var best *Planet
	bestLen := -1
	for i := range config.Planets {
		p := &config.Planets[i]
		root := p.ResolvedPath()
		if !within(resolvedDir, root) {
			continue
		}
		if len(root) > bestLen {
			best, bestLen = p, len(root)
		}
	}
	if best == nil {
		return nil, &PlanetNotFoundError{Dir: dir, Planets: config.Planets}
	}
	return best, nil
}

func within(dir, root string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ScaffoldPlanet builds a minimal planet entry for dir: its basename as the
// name and a single interactive pane.
func ScaffoldPlanet(dir string) Planet {
	resolved := resolvePath(dir)
	return Planet{
		Name:  filepath.Base(resolved),
		Path:  contractHome(resolved),
		Panes: []Pane{{Name: "shell"}},
	}
}

// AppendPlanet adds planet to the planets list of the YAML file at path,
// keeping the file's existing comments.
func AppendPlanet(path string, planet Planet) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: %s is not a YAML mapping", ErrConfig, path)
	}

	var entry yaml.Node
	if err := entry.Encode(planet); err != nil {
		return err
	}

	planets := findKey(root, "planets")
	if planets == nil {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "planets"},
			&yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"},
		)
		planets = root.Content[len(root.Content)-1]
	}
	if planets.Kind != yaml.SequenceNode {
		// "planets:" with only commented entries decodes as null.
		planets.Kind = yaml.SequenceNode
		planets.Tag = "!!seq"
		planets.Value = ""
	}
	planets.Content = append(planets.Content, &entry)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func findKey(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func contractHome(path string) string {
	home, err := osUserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(home); err == nil {
		home = resolved
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}
