package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tubescout/internal/core/domain"
)

func TestReadLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	content := "https://youtu.be/a, https://youtu.be/b,\r\nhttps://youtu.be/c\n,,"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	links, err := readLinks(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Join(links, " ") != "https://youtu.be/a https://youtu.be/b https://youtu.be/c" {
		t.Errorf("Unexpected links %v", links)
	}
}

func TestReadLinksEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	if err := os.WriteFile(path, []byte(" , \n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := readLinks(path); !errors.Is(err, domain.ErrNoURLs) {
		t.Errorf("Expected ErrNoURLs, got %v", err)
	}
}
