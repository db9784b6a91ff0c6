package fs

import (
	"errors"
	"io/fs"
	"os"
)

// FileSystem is a thin wrapper around the os package so that merge state handling can be
// pointed at an alternative implementation in tests.
type FileSystem struct {
}

func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (f *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (f *FileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (f *FileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (f *FileSystem) Remove(path string) error {
	return os.Remove(path)
}

// Exists reports whether path exists. Stat failures other than "not exist" count as existing
// so that callers err on the side of cleaning up.
func (f *FileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// RemoveIfExists removes path, treating an already missing file as success.
func (f *FileSystem) RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Mode returns the permission bits of path, or fallback when it cannot be stat'ed.
func (f *FileSystem) Mode(path string, fallback os.FileMode) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return fallback
}
