package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

func TestSanitizeSegment(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ciencias de la Computación!!", "Ciencias_De_La_Computacion"},
		{"historia   del\tarte", "Historia_Del_Arte"},
		{"redes/protocolos", "Redes_Protocolos"},
		{"machine-learning", "Machine_Learning"},
		{"¿¡???", "Otros"},
		{"  física  ", "Fisica"},
	}
	for _, tc := range cases {
		if got := sanitizeSegment(tc.in); got != tc.want {
			t.Errorf("sanitizeSegment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeSegmentCapsLength(t *testing.T) {
	long := "tema general muy extenso que jamas deberia caber en un solo nombre de carpeta"
	got := sanitizeSegment(long)
	if len(got) > 50 {
		t.Fatalf("segment %q is %d chars, cap is 50", got, len(got))
	}
	if got[len(got)-1] == '_' {
		t.Fatalf("segment %q ends with underscore", got)
	}
}

func TestOrganizePlacesFilesByTheme(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "organizado")
	writePDFs(t, src, "a.pdf", "b.pdf", "c.pdf")

	records := []domain.Record{
		{Archivo: "a.pdf", TemaGeneral: "Ciencias de la Computación!!", Subtema: "Redes"},
		{Archivo: "b.pdf", TemaGeneral: "Historia"},
		{Archivo: "c.pdf", TemaGeneral: "n/a"},
	}

	uc := NewOrganizeUseCase(testLogger())
	outcome, err := uc.Organize(context.Background(), records, src, dest)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if outcome.Organized != 2 || outcome.Unclassified != 1 || outcome.Errors != 0 {
		t.Fatalf("outcome = %+v", outcome)
	}

	for _, rel := range []string{
		filepath.Join("Ciencias_De_La_Computacion", "Redes", "a.pdf"),
		filepath.Join("Historia", "b.pdf"),
		filepath.Join("no_clasificados", "c.pdf"),
	} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	if outcome.FoldersCreated != 3 {
		t.Errorf("FoldersCreated = %d, want 3", outcome.FoldersCreated)
	}
}

func TestOrganizeMapsPlaceholderThemesToUnclassified(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writePDFs(t, src, "p1.pdf", "p2.pdf", "p3.pdf", "p4.pdf")

	records := []domain.Record{
		{Archivo: "p1.pdf", TemaGeneral: ""},
		{Archivo: "p2.pdf", TemaGeneral: "NA"},
		{Archivo: "p3.pdf", TemaGeneral: "none"},
		{Archivo: "p4.pdf", TemaGeneral: "Null"},
	}

	uc := NewOrganizeUseCase(testLogger())
	outcome, err := uc.Organize(context.Background(), records, src, dest)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if outcome.Unclassified != 4 || outcome.Organized != 0 {
		t.Fatalf("outcome = %+v", outcome)
	}
	entries, err := os.ReadDir(filepath.Join(dest, "no_clasificados"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Errorf("no_clasificados holds %d files, want 4", len(entries))
	}
}

func TestOrganizeSweepsUnmentionedPDFsIntoUnclassified(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writePDFs(t, src, "conocido.pdf", "olvidado.pdf", "tambien_olvidado.pdf")

	records := []domain.Record{{Archivo: "conocido.pdf", TemaGeneral: "Historia"}}

	uc := NewOrganizeUseCase(testLogger())
	outcome, err := uc.Organize(context.Background(), records, src, dest)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if outcome.Organized != 1 || outcome.Unclassified != 2 {
		t.Fatalf("outcome = %+v", outcome)
	}

	// Every source PDF must appear exactly once in the destination tree.
	placed := map[string]int{}
	err = filepath.Walk(dest, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			placed[filepath.Base(path)]++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"conocido.pdf", "olvidado.pdf", "tambien_olvidado.pdf"} {
		if placed[name] != 1 {
			t.Errorf("%s placed %d times, want exactly once", name, placed[name])
		}
	}
}

func TestOrganizeCountsMissingSourceFiles(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writePDFs(t, src, "presente.pdf")

	records := []domain.Record{
		{Archivo: "presente.pdf", TemaGeneral: "Arte"},
		{Archivo: "fantasma.pdf", TemaGeneral: "Arte"},
	}

	uc := NewOrganizeUseCase(testLogger())
	outcome, err := uc.Organize(context.Background(), records, src, dest)
	if err != nil {
		t.Fatalf("Organize: %v", err)
	}
	if outcome.Organized != 1 || outcome.Errors != 1 {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestOrganizeIsIdempotent(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	writePDFs(t, src, "a.pdf", "b.pdf")

	records := []domain.Record{
		{Archivo: "a.pdf", TemaGeneral: "Historia"},
	}

	uc := NewOrganizeUseCase(testLogger())
	first, err := uc.Organize(context.Background(), records, src, dest)
	if err != nil {
		t.Fatalf("first Organize: %v", err)
	}
	second, err := uc.Organize(context.Background(), records, src, dest)
	if err != nil {
		t.Fatalf("second Organize: %v", err)
	}
	if first != second {
		t.Errorf("outcomes differ between runs: %+v vs %+v", first, second)
	}

	count := 0
	filepath.Walk(dest, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			count++
		}
		return nil
	})
	if count != 2 {
		t.Errorf("destination holds %d files after rerun, want 2", count)
	}
}

func TestOrganizeDefaultsDestinationNextToSource(t *testing.T) {
	parent := t.TempDir()
	src := filepath.Join(parent, "papers")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	writePDFs(t, src, "a.pdf")

	records := []domain.Record{{Archivo: "a.pdf", TemaGeneral: "Historia"}}
	uc := NewOrganizeUseCase(testLogger())
	if _, err := uc.Organize(context.Background(), records, src, ""); err != nil {
		t.Fatalf("Organize: %v", err)
	}
	want := filepath.Join(parent, "papers_clasificado", "Historia", "a.pdf")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("missing %s: %v", want, err)
	}
}

func TestOrganizeRejectsMissingSource(t *testing.T) {
	uc := NewOrganizeUseCase(testLogger())
	_, err := uc.Organize(context.Background(), nil, filepath.Join(t.TempDir(), "nope"), "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
