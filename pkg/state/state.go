package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultDBPath is used when no db path is configured.
const DefaultDBPath = "./.ghostline"

var (
	// PathsVar is the layout Init resolved.
	PathsVar Paths

	initOnce sync.Once
	initErr  error
)

// Init resolves the layout under dbPath and creates it. Only the first
// call has an effect; later calls return its result.
func Init(dbPath string) error {
	initOnce.Do(func() {
		root := strings.TrimSpace(dbPath)
		if root == "" {
			root = DefaultDBPath
		}
		root = filepath.Clean(root)
		PathsVar = PathsFor(root)
		initErr = EnsureStateDirs(root)
	})
	return initErr
}

// EnsureStateDirs creates every directory of the layout with 0700
// permissions. Existing entries must be real, writable directories.
func EnsureStateDirs(dbPath string) error {
	for _, dir := range PathsFor(dbPath).all() {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

func ensureDir(dir string) error {
	fi, err := os.Lstat(dir)
	switch {
	case err == nil && fi.Mode()&os.ModeSymlink != 0:
		return fmt.Errorf("path is a symlink: %s", dir)
	case err == nil && !fi.IsDir():
		return fmt.Errorf("path exists and is not a directory: %s", dir)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("cannot create path %s: %w", dir, err)
	}
	return checkWritable(dir)
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".writecheck-*")
	if err != nil {
		return fmt.Errorf("path not writable: %s: %w", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
