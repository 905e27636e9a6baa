package pdftext

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractPlainTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "motion.txt")
	if err := os.WriteFile(path, []byte("  Motion to reopen removal proceedings.\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	text, err := New().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "Motion to reopen removal proceedings." {
		t.Fatalf("text = %q", text)
	}
}

func TestExtractRejectsBinaryFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00, 0x81}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := New().Extract(context.Background(), path); err == nil {
		t.Fatalf("expected error for binary content")
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestExtractHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Extract(ctx, "ignored.txt"); err == nil {
		t.Fatalf("expected context error")
	}
}
