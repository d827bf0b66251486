package docker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// NewCIDFilePath returns a fresh cid file path under dir. The file is not
// created: the runtime refuses to start when the cid file already exists.
func NewCIDFilePath(dir string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "testdock-"+uuid.NewString()+".cid")
}

// readCIDFile returns the container id stored at path. A missing or empty file
// yields "" with no error.
func readCIDFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// waitForCIDFile blocks until path holds a container id. It gives up when the
// process exits (after one final read) or ctx is done.
func waitForCIDFile(ctx context.Context, path string, exited <-chan struct{}) (string, error) {
	if id, err := readCIDFile(path); err != nil || id != "" {
		return id, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("watching cid file: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return "", fmt.Errorf("watching cid file directory: %w", err)
	}

	// The file may have been written between the first read and Add.
	if id, err := readCIDFile(path); err != nil || id != "" {
		return id, err
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return readCIDFile(path)
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) || !ev.Has(fsnotify.Create|fsnotify.Write) {
				continue
			}
			if id, err := readCIDFile(path); err != nil || id != "" {
				return id, err
			}
		case err, ok := <-watcher.Errors:
			if ok && err != nil {
				return "", fmt.Errorf("watching cid file: %w", err)
			}
		case <-exited:
			return readCIDFile(path)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// removeCIDFile deletes path. A missing file is not an error.
func removeCIDFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
