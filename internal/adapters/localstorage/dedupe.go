package localstorage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DedupeResult lists what a DedupeFiles pass did.
type DedupeResult struct {
	Deleted []string
	Errors  []error
}

// DedupeFiles deletes files in dir whose content duplicates an earlier file
// with the same extension (case-insensitive). Files are visited in name order,
// so the alphabetically first copy survives. Unreadable files are reported
// and left alone.
func DedupeFiles(dir, ext string) (*DedupeResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	ext = strings.ToLower(ext)
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	res := &DedupeResult{}
	seen := make(map[string]string)
	for _, name := range names {
		path := filepath.Join(dir, name)
		sum, err := fileHash(path)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("error reading %s: %w", name, err))
			continue
		}
		if _, dup := seen[sum]; !dup {
			seen[sum] = name
			continue
		}
		if err := os.Remove(path); err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("error deleting %s: %w", name, err))
			continue
		}
		res.Deleted = append(res.Deleted, name)
	}
	return res, nil
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
