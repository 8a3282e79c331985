package watcher

import (
	"fmt"
	"os"
	"path/filepath"

	"logobanner/src/config"
)

const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Mover handles moving inbox files between folders based on outcome
type Mover struct {
	inbox   string
	output  string
	folders map[string]string
}

// NewMover creates a new file mover and makes sure its folders exist.
// Empty processed/failed dirs default to subfolders of the inbox.
func NewMover(cfg *config.Config) (*Mover, error) {
	w := cfg.Watch
	m := &Mover{
		inbox:  w.InboxDir,
		output: w.OutputDir,
		folders: map[string]string{
			StatusProcessed: w.ProcessedDir,
			StatusFailed:    w.FailedDir,
		},
	}
	for status, dir := range m.folders {
		if dir == "" {
			m.folders[status] = filepath.Join(w.InboxDir, status)
		}
	}

	for _, dir := range []string{m.inbox, m.output, m.folders[StatusProcessed], m.folders[StatusFailed]} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create folder %s: %w", dir, err)
		}
	}

	return m, nil
}

// GetFolderForStatus returns the folder path for a given status
func (m *Mover) GetFolderForStatus(status string) (string, error) {
	folder, ok := m.folders[status]
	if !ok {
		return "", fmt.Errorf("no folder mapping for status '%s'", status)
	}
	return folder, nil
}

// MoveFile moves an inbox file to the folder for status and returns its new path
func (m *Mover) MoveFile(path, status string) (string, error) {
	targetFolder, err := m.GetFolderForStatus(status)
	if err != nil {
		return "", fmt.Errorf("failed to get target folder: %w", err)
	}

	targetPath := filepath.Join(targetFolder, filepath.Base(path))
	if path == targetPath {
		return path, nil
	}

	if err := os.Rename(path, targetPath); err != nil {
		return "", fmt.Errorf("failed to move file: %w", err)
	}
	return targetPath, nil
}

// WriteOutput writes a finished banner to the output folder. The data goes
// to a temp file first so readers never see a partial JPEG.
func (m *Mover) WriteOutput(name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(m.output, ".banner-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("Failed to remove temp file %s: %v", tmpPath, err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	target := filepath.Join(m.output, name)
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("failed to move output into place: %w", err)
	}
	committed = true

	return target, nil
}

// GetAllMonitoredFolders returns all folders that should be monitored
func (m *Mover) GetAllMonitoredFolders() []string {
	return []string{m.inbox}
}
