package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileSink writes the document into Dir.
type FileSink struct {
	Dir string
	// Overwrite allows replacing an existing file of the same name.
	Overwrite bool
}

// Deliver writes to a temp file next to the target and moves it into place,
// so a reader never sees a partial file. Without Overwrite the move is a hard
// link, which fails atomically when the target exists. The temp file is
// removed on every path.
func (s *FileSink) Deliver(ctx context.Context, data []byte, filename string) error {
	name, err := BaseName(filename)
	if err != nil {
		return err
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	target := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".pdfmerge-*.part")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err := s.place(tmpPath, target); err != nil {
		return err
	}
	slog.Info("Merged PDF written.", "path", target, "bytes", len(data))
	return nil
}

func (s *FileSink) place(tmpPath, target string) error {
	if s.Overwrite {
		if err := os.Rename(tmpPath, target); err != nil {
			return fmt.Errorf("failed to move merged file into place: %w", err)
		}
		return nil
	}
	if err := os.Link(tmpPath, target); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to deliver %s: %w", target, os.ErrExist)
		}
		return fmt.Errorf("failed to link merged file into place: %w", err)
	}
	return nil
}
