// Package storage persists the checklist state: a filesystem repository with
// a guarded file layout, schema validation, versioned migration, post-load
// repair, and a debounced write engine on top.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

const TicklistDir = ".ticklist"
const StateFile = "state.json"
const ConfigFile = "config.yaml"
const CatalogFile = "catalog.yaml"

// FilesystemRepository owns the on-disk layout under <root>/.ticklist.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is within the .ticklist directory and prevents
// traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	// Base directory is strictly root/.ticklist
	baseDir := filepath.Join(r.root, TicklistDir)
	fullPath := filepath.Join(baseDir, filename)
	cleanPath := filepath.Clean(fullPath)

	// Check for traversal and ensure it's a direct child (no nested subdirs in .ticklist for now)
	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	path := filepath.Join(r.root, TicklistDir)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create .ticklist directory: %w", err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, TicklistDir))
	return err == nil
}

// WriteState writes the raw state document, retrying transient failures.
// The document goes to a temp file first and is renamed into place, so a
// crash mid-write leaves the previous document intact instead of a torn one.
func (r *FilesystemRepository) WriteState(data []byte) error {
	path, err := r.ResolvePath(StateFile)
	if err != nil {
		return err
	}
	tmpPath, err := r.ResolvePath(StateFile + ".tmp")
	if err != nil {
		return err
	}

	retryer := retry.New[struct{}](r.retryConfig)
	_, err = retryer.Do(context.Background(), func(ctx context.Context) (struct{}, error) {
		// G306: Use 0600 for files
		if err := os.WriteFile(tmpPath, data, 0600); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, os.Rename(tmpPath, path)
	})
	if err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// ReadState reads the raw state document. A missing file reports
// os.ErrNotExist unwrapped so callers can branch on first run.
func (r *FilesystemRepository) ReadState() ([]byte, error) {
	path, err := r.ResolvePath(StateFile)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	retryer := retry.New[[]byte](r.retryConfig)
	data, err := retryer.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		return os.ReadFile(path)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}
