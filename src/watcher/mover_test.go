package watcher

import (
	"os"
	"path/filepath"
	"testing"

	"logobanner/src/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.Watch = config.WatchConfig{
		Enabled:   true,
		InboxDir:  filepath.Join(tmpDir, "inbox"),
		OutputDir: filepath.Join(tmpDir, "out"),
		FailedDir: filepath.Join(tmpDir, "failed"),
		Color:     "#000",
	}
	return cfg
}

func TestNewMoverCreatesFolders(t *testing.T) {
	cfg := testConfig(t)

	mover, err := NewMover(cfg)
	if err != nil {
		t.Fatalf("NewMover failed: %v", err)
	}

	processed, err := mover.GetFolderForStatus(StatusProcessed)
	if err != nil {
		t.Fatalf("GetFolderForStatus failed: %v", err)
	}

	// processed_dir was left empty and defaults into the inbox
	if processed != filepath.Join(cfg.Watch.InboxDir, "processed") {
		t.Errorf("Unexpected processed folder: %s", processed)
	}

	for _, dir := range []string{cfg.Watch.InboxDir, cfg.Watch.OutputDir, cfg.Watch.FailedDir, processed} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("Expected folder %s to exist", dir)
		}
	}

	if _, err := mover.GetFolderForStatus("published"); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestMoveFile(t *testing.T) {
	cfg := testConfig(t)
	mover, err := NewMover(cfg)
	if err != nil {
		t.Fatalf("NewMover failed: %v", err)
	}

	src := filepath.Join(cfg.Watch.InboxDir, "logo.png")
	if err := os.WriteFile(src, []byte("png"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	moved, err := mover.MoveFile(src, StatusFailed)
	if err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}

	expectedPath := filepath.Join(cfg.Watch.FailedDir, "logo.png")
	if moved != expectedPath {
		t.Errorf("Expected %s, got %s", expectedPath, moved)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("Source file should be gone")
	}

	// Moving a file already in place is a no-op
	if again, err := mover.MoveFile(moved, StatusFailed); err != nil || again != moved {
		t.Errorf("Expected no-op move, got %s, %v", again, err)
	}
}

func TestWriteOutputLeavesNoTempFiles(t *testing.T) {
	cfg := testConfig(t)
	mover, err := NewMover(cfg)
	if err != nil {
		t.Fatalf("NewMover failed: %v", err)
	}

	path, err := mover.WriteOutput("banner.jpeg", []byte("jpeg"))
	if err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("Unexpected output %q, %v", data, err)
	}

	entries, err := os.ReadDir(cfg.Watch.OutputDir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the banner in output, got %d entries", len(entries))
	}
}
