package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCappedFileWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debate.log")
	w, err := newCappedFileWriter(path, 1)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}
	defer w.Close()

	chunk := make([]byte, 512*1024)
	for i := 0; i < 3; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Fatalf("expected log <= 1MB, got %d", info.Size())
	}
}
