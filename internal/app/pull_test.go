package app

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/jobrunner/geocat/internal/adapters/storage"
)

func TestPull(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "catalog.yaml", catalogYAML)
	if err := os.MkdirAll(filepath.Join(src, "styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(src, "styles"), "line.yaml", "styles:\n  - name: line\n    filename: line.sld\n")
	writeFile(t, src, "notes.txt", "not a snapshot")

	destDir := t.TempDir()
	writeFile(t, destDir, "catalog.yaml", "workspaces: []\n")
	dest := storage.NewLocalStorage(destDir)
	ctx := context.Background()

	result, err := Pull(ctx, storage.NewLocalStorage(src), dest, false, testLogger())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !slices.Equal(result.Downloaded, []string{"styles/line.yaml"}) {
		t.Errorf("downloaded = %v", result.Downloaded)
	}
	if !slices.Equal(result.Skipped, []string{"catalog.yaml"}) {
		t.Errorf("skipped = %v", result.Skipped)
	}

	result, err = Pull(ctx, storage.NewLocalStorage(src), dest, true, testLogger())
	if err != nil {
		t.Fatalf("Pull(overwrite) error = %v", err)
	}
	if len(result.Downloaded) != 2 || len(result.Skipped) != 0 {
		t.Errorf("overwrite result = %+v", result)
	}
	got, err := os.ReadFile(filepath.Join(destDir, "catalog.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != catalogYAML {
		t.Error("catalog.yaml was not overwritten")
	}
}
