package ports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Assignment records the port a pane declared and the port it was given.
type Assignment struct {
	Declared int
	Assigned int
}

// Map is an ordered declared→assigned port mapping. Order is the pane
// declaration order and is preserved through JSON round trips.
type Map struct {
	entries []Assignment
}

// NewMap builds a Map from assignments, keeping the first entry for any
// repeated declared port.
func NewMap(assignments ...Assignment) Map {
	var m Map
	for _, a := range assignments {
		m.Set(a.Declared, a.Assigned)
	}
	return m
}

// Set records declared→assigned. An existing declared port keeps its
// position and has its assigned value replaced.
func (m *Map) Set(declared, assigned int) {
	for i := range m.entries {
		if m.entries[i].Declared == declared {
			m.entries[i].Assigned = assigned
			return
		}
	}
	m.entries = append(m.entries, Assignment{Declared: declared, Assigned: assigned})
}

// Get returns the port assigned for declared.
func (m Map) Get(declared int) (int, bool) {
	for _, e := range m.entries {
		if e.Declared == declared {
			return e.Assigned, true
		}
	}
	return 0, false
}

// Len returns the number of entries.
func (m Map) Len() int { return len(m.entries) }

// Entries returns a copy of the entries in declaration order.
func (m Map) Entries() []Assignment {
	return append([]Assignment(nil), m.entries...)
}

// Values returns the assigned ports in declaration order.
func (m Map) Values() []int {
	out := make([]int, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Assigned)
	}
	return out
}

// Remapped reports whether any declared port was moved to a different value.
func (m Map) Remapped() bool {
	for _, e := range m.entries {
		if e.Declared != e.Assigned {
			return true
		}
	}
	return false
}

// MarshalJSON writes the map as a flat object keyed by the declared port.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%d", strconv.Itoa(e.Declared), e.Assigned)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object, keeping the key order found in data.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		m.entries = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("port map: expected object, got %v", tok)
	}

	var entries []Assignment
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		declared, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("port map: invalid declared port %q", key)
		}
		var assigned int
		if err := dec.Decode(&assigned); err != nil {
			return fmt.Errorf("port map: invalid value for %q: %w", key, err)
		}
		entries = append(entries, Assignment{Declared: declared, Assigned: assigned})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	m.entries = nil
	for _, e := range entries {
		m.Set(e.Declared, e.Assigned)
	}
	return nil
}

// MarshalYAML renders the map as a sequence of declared/assigned pairs so
// that YAML output keeps declaration order too.
func (m Map) MarshalYAML() (interface{}, error) {
	type pair struct {
		Declared int `yaml:"declared"`
		Assigned int `yaml:"assigned"`
	}
	out := make([]pair, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, pair{Declared: e.Declared, Assigned: e.Assigned})
	}
	return out, nil
}
