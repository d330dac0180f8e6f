package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sink stores rendered documents and returns where they landed.
type Sink interface {
	Put(ctx context.Context, doc Document) (string, error)
}

// ObjectKey prefixes the document name with a UTC timestamp so scheduled runs
// do not overwrite each other.
func ObjectKey(doc Document, at time.Time) string {
	return at.UTC().Format("20060102T150405Z") + "_" + doc.Name
}

// FileSink writes documents into a directory.
type FileSink struct {
	Dir string
	Now func() time.Time
}

// NewFileSink creates a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir, Now: time.Now}
}

// Put implements Sink.
func (s *FileSink) Put(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.Dir, ObjectKey(doc, s.Now()))
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
