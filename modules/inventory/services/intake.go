package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoIntakeFile means the intake directory holds no workbook. This is the
// normal between-deliveries state, not a failure.
var ErrNoIntakeFile = errors.New("no intake workbook")

const archiveStampLayout = "20060102_150405"

// EnsureDirs creates the pipeline's working directories if absent.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FindOldestWorkbook returns the path of the oldest spreadsheet in dir by
// modification time, so deliveries are processed in arrival order one run at
// a time.
func FindOldestWorkbook(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read intake directory %s: %w", dir, err)
	}

	var (
		oldest     string
		oldestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".xlsx" && ext != ".xls" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if oldest == "" || info.ModTime().Before(oldestTime) {
			oldest = filepath.Join(dir, entry.Name())
			oldestTime = info.ModTime()
		}
	}
	if oldest == "" {
		return "", ErrNoIntakeFile
	}
	return oldest, nil
}

// ArchiveFile moves a processed workbook into archiveDir under a
// timestamp-prefixed name. A source that vanished since discovery is a no-op;
// the returned path is empty in that case.
func ArchiveFile(path, archiveDir string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}
	dest := filepath.Join(archiveDir, time.Now().Format(archiveStampLayout)+"_"+filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return dest, nil
}
