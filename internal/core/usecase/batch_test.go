package usecase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

func TestListPDFsFiltersByExtensionAndKind(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "B.PDF", "notes.txt", "c.Pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested.pdf", "deep.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := listPDFs(dir)
	if err != nil {
		t.Fatalf("listPDFs: %v", err)
	}
	got := make([]string, 0, len(docs))
	for _, d := range docs {
		got = append(got, d.Name)
	}
	want := []string{"B.PDF", "a.pdf", "c.Pdf"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListPDFsMissingFolder(t *testing.T) {
	if _, err := listPDFs(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestMakeBatchesKeepsOrderAndSizes(t *testing.T) {
	docs := make([]domain.Document, 7)
	for i := range docs {
		docs[i] = domain.Document{Name: string(rune('a' + i))}
	}

	batches := makeBatches(docs, 3)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	sizes := []int{3, 3, 1}
	pos := 0
	for i, batch := range batches {
		if len(batch) != sizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, len(batch), sizes[i])
		}
		for _, doc := range batch {
			if doc.Name != docs[pos].Name {
				t.Errorf("batch %d has %q, want %q", i, doc.Name, docs[pos].Name)
			}
			pos++
		}
	}
}

func TestMakeBatchesEmptyAndDegenerateSize(t *testing.T) {
	if got := makeBatches(nil, 5); got != nil {
		t.Fatalf("expected no batches for empty input, got %d", len(got))
	}
	batches := makeBatches([]domain.Document{{Name: "a"}, {Name: "b"}}, 0)
	if len(batches) != 2 {
		t.Fatalf("size 0 should fall back to singleton batches, got %d", len(batches))
	}
}
