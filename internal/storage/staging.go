package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Staging is the local directory videos are downloaded into before upload.
type Staging struct {
	Dir string
}

func NewStaging(dir string) *Staging {
	return &Staging{Dir: dir}
}

func (s *Staging) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// Path is unique per post so concurrent jobs never share a file.
func (s *Staging) Path(postID int64) string {
	return filepath.Join(s.Dir, fmt.Sprintf("video_%d.mp4", postID))
}

// Remove deletes path, ignoring files that are already gone.
func (s *Staging) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Info(err.Error())
	}
}
