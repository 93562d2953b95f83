package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func testTable() *Table {
	return New(map[string]Entry{
		"cs-ai-nlp": {Field: "Computer Science", Area: "Artificial Intelligence", Domain: "Natural Language Processing"},
		"edu-tech":  {Field: "Education", Area: "Educational Technology"},
	}, zap.NewNop())
}

func TestResolve_Known(t *testing.T) {
	got := testTable().Resolve("cs-ai-nlp")
	want := "Computer Science > Artificial Intelligence > Natural Language Processing"
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolve_PartialHierarchy(t *testing.T) {
	got := testTable().Resolve("edu-tech")
	if got != "Education > Educational Technology" {
		t.Fatalf("Resolve = %q", got)
	}
}

func TestResolve_UnknownPassesThrough(t *testing.T) {
	if got := testTable().Resolve("xx-yy-zz"); got != "xx-yy-zz" {
		t.Fatalf("unresolved key must pass through verbatim, got %q", got)
	}
}

func TestResolveAll_DropsEmpties(t *testing.T) {
	got := testTable().ResolveAll([]string{"cs-ai-nlp", "", "  ", "unknown-key"})
	if len(got) != 2 {
		t.Fatalf("expected 2 resolved terms, got %v", got)
	}
	if got[1] != "unknown-key" {
		t.Fatalf("expected verbatim fallback, got %q", got[1])
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	data := []byte("cs-ai-nlp:\n  field: Computer Science\n  area: AI\n  domain: NLP\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path, zap.NewNop())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", table.Len())
	}
	if got := table.Resolve("cs-ai-nlp"); got != "Computer Science > AI > NLP" {
		t.Fatalf("Resolve = %q", got)
	}
}
