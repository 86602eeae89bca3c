package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGeneratePath(t *testing.T) {
	path := GeneratePath("scenes", time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC))
	if path != filepath.Join("scenes", "scene_2026-02-13_01-00-00.yaml") {
		t.Errorf("Unexpected path %s", path)
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	files := []string{"scene_a.yaml", "scene_b.yml", "scene_c.yaml", "notes.txt"}
	base := time.Now().Add(-time.Hour)
	for i, name := range files {
		path := filepath.Join(dir, name)
		os.WriteFile(path, []byte("texts: []"), 0644)
		mod := base.Add(time.Duration(i) * time.Minute)
		os.Chtimes(path, mod, mod)
	}

	latest, err := FindLatest(dir)
	if err != nil {
		t.Fatalf("FindLatest failed: %v", err)
	}
	if filepath.Base(latest) != "scene_c.yaml" {
		t.Errorf("Expected scene_c.yaml, got %s", latest)
	}

	if _, err := FindLatest(t.TempDir()); err == nil || !strings.Contains(err.Error(), "no scene files") {
		t.Errorf("Expected empty directory error, got %v", err)
	}
	if _, err := FindLatest(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}
