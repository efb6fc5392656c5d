package localstorage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"tubescout/internal/core/domain"
)

// CloneProfile replaces scratchDir with a copy of sourceDir/profileName,
// placed at scratchDir/profileName.
func (s *LocalStorage) CloneProfile(sourceDir, profileName, scratchDir string) error {
	src := filepath.Join(sourceDir, profileName)
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", src, domain.ErrProfileNotFound)
	}

	if err := os.RemoveAll(scratchDir); err != nil {
		return fmt.Errorf("failed to remove old scratch profile: %w", err)
	}
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch profile dir: %w", err)
	}

	return copyTree(src, filepath.Join(scratchDir, profileName))
}

// copyTree copies regular files and directories; symlinks and sockets
// (Chrome leaves a few lock links around) are skipped.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
