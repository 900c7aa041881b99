package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// LocalStore writes objects under a directory served by the static file
// handler.
type LocalStore struct {
	Dir     string // filesystem root, e.g. "./static"
	BaseURL string // URL prefix the Dir is served under, e.g. "/"
}

// Put writes the object to disk.
// PRE: key contains no ".." segments
// POST: File exists under Dir; returns BaseURL-joined URL
func (s *LocalStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	full := path.Join(s.Dir, key)
	if err := os.MkdirAll(path.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return strings.TrimSuffix(s.BaseURL, "/") + "/" + key, nil
}

// Delete removes the object from disk.
// POST: File no longer exists; missing files are ignored
func (s *LocalStore) Delete(_ context.Context, key string) error {
	if strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key: %s", key)
	}
	err := os.Remove(path.Join(s.Dir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
