// Package taxonomy resolves domain-taxonomy triplet keys of the form
// "field-area-domain" into human-readable hierarchical names.
package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Entry is one resolved taxonomy node.
type Entry struct {
	Field  string `yaml:"field"`
	Area   string `yaml:"area"`
	Domain string `yaml:"domain"`
}

// Name renders the hierarchical path, skipping empty levels.
func (e Entry) Name() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Field, e.Area, e.Domain} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " > ")
}

// Table maps triplet keys to entries. Read-only after construction.
type Table struct {
	entries map[string]Entry
	logger  *zap.Logger
}

// New creates a table from an in-memory entry map.
func New(entries map[string]Entry, logger *zap.Logger) *Table {
	if entries == nil {
		entries = map[string]Entry{}
	}
	return &Table{entries: entries, logger: logger}
}

// LoadFile reads a YAML taxonomy table (triplet key -> entry).
func LoadFile(path string, logger *zap.Logger) (*Table, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read taxonomy table %s: %w", path, err)
	}

	var entries map[string]Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse taxonomy table: %w", err)
	}

	return New(entries, logger), nil
}

// Resolve returns the hierarchical name for a triplet key. Unresolved keys
// are returned verbatim so the text representation never loses a term.
func (t *Table) Resolve(key string) string {
	k := strings.TrimSpace(key)
	if k == "" {
		return ""
	}
	if e, ok := t.entries[k]; ok {
		return e.Name()
	}
	if t.logger != nil {
		t.logger.Warn("Unresolved taxonomy key", zap.String("key", k))
	}
	return k
}

// ResolveAll resolves a slice of keys, dropping empties.
func (t *Table) ResolveAll(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if resolved := t.Resolve(k); resolved != "" {
			out = append(out, resolved)
		}
	}
	return out
}

// Len reports the number of known triplet keys.
func (t *Table) Len() int { return len(t.entries) }
