// Package afero wraps spf13's afero so that agents can be tested against
// an in-memory filesystem.
package afero

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type File interface {
	afero.File
}

type Fs interface {
	afero.Fs
}

func TempDir(fs Fs, dir, prefix string) (name string, err error) {
	return afero.TempDir(fs, dir, prefix)
}

func TempFile(fs Fs, dir, prefix string) (f File, err error) {
	return afero.TempFile(fs, dir, prefix)
}

func Walk(fs Fs, root string, walkFn filepath.WalkFunc) error {
	return afero.Walk(fs, root, walkFn)
}

func WriteFile(fs Fs, filename string, data []byte, perm os.FileMode) error {
	return afero.WriteFile(fs, filename, data, perm)
}

func ReadFile(fs Fs, filename string) ([]byte, error) {
	return afero.ReadFile(fs, filename)
}

func ReadDir(fs Fs, dirname string) ([]os.FileInfo, error) {
	return afero.ReadDir(fs, dirname)
}

// Exists returns true and nil error if the given path for a file or directory
// exists.
func Exists(fs afero.Fs, path string) (bool, error) {
	return afero.Exists(fs, path)
}

// DirExists returns true if the given path exists and is a directory.
func DirExists(fs afero.Fs, path string) (bool, error) {
	return afero.DirExists(fs, path)
}
