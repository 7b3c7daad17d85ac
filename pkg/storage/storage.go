package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PictureDir is the directory, relative to the static root, that profile pictures go to
const PictureDir = "user_image"

// PictureStore persists uploaded profile pictures
type PictureStore interface {
	// Save stores data under name and returns the path or URL to show it with
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// LocalStore keeps pictures under a directory served as static files
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the static directory root
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Save writes the picture to <root>/user_image/<name> and returns "user_image/<name>"
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, PictureDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create picture dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write picture: %w", err)
	}
	return path.Join(PictureDir, name), nil
}

func cleanName(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", fmt.Errorf("invalid picture name %q", name)
	}
	return base, nil
}
