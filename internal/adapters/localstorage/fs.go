package localstorage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tubescout/internal/core/domain"
)

// LocalStorage implements ports.LogStore and ports.ProfileCloner on the local filesystem.
type LocalStorage struct {
	UploadDir string
	LogFile   string
	now       func() time.Time
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(uploadDir, logFile string) *LocalStorage {
	return &LocalStorage{UploadDir: uploadDir, LogFile: logFile, now: time.Now}
}

// EnsureDirs creates the upload directory.
func (s *LocalStorage) EnsureDirs() error {
	if err := os.MkdirAll(s.UploadDir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory %s: %w", s.UploadDir, err)
	}
	return nil
}

// OutputPath returns the path of a generated file in the upload directory.
func (s *LocalStorage) OutputPath(filename string) string {
	return filepath.Join(s.UploadDir, filename)
}

// SaveUpload stores an uploaded file under a sanitized name and returns its path.
func (s *LocalStorage) SaveUpload(filename string, reader io.Reader) (string, error) {
	name := SecureFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid upload filename %q", filename)
	}
	if err := s.EnsureDirs(); err != nil {
		return "", err
	}

	path := s.OutputPath(name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path, nil
}

// AppendLog adds a timestamp to entry and appends it to the log file.
// The file is rewritten whole; concurrent appenders can lose entries.
func (s *LocalStorage) AppendLog(entry domain.LogEntry) error {
	logs, err := s.Logs()
	if err != nil {
		logs = nil
	}

	entry[domain.LogKeyTimestamp] = s.now().Format(time.RFC3339Nano)
	logs = append(logs, entry)

	data, err := json.MarshalIndent(logs, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode log: %w", err)
	}
	if dir := filepath.Dir(s.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	if err := os.WriteFile(s.LogFile, data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.LogFile, err)
	}
	return nil
}

// Logs returns all entries in file order. A missing file yields no entries;
// an unreadable one yields no entries and the decode error.
func (s *LocalStorage) Logs() ([]domain.LogEntry, error) {
	data, err := os.ReadFile(s.LogFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.LogFile, err)
	}

	var logs []domain.LogEntry
	if err := json.Unmarshal(data, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.LogFile, err)
	}
	return logs, nil
}

// SecureFilename strips directory parts and keeps only characters safe in a
// file name on every OS. Returns "" when nothing usable is left.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "._")
	return out
}
