// Package filex holds small filesystem helpers for the CLI: the photo
// export directory and reading photos picked by the user.
package filex

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxPhotoSize caps a single photo read from disk.
const MaxPhotoSize = 10 << 20

var (
	ErrTooLarge = errors.New("file too large")
	ErrNotImage = errors.New("not an image")
)

// EnsureSubdDir creates dirName under the working directory and returns its
// absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// ReadPhoto reads an image file of at most MaxPhotoSize bytes.
func ReadPhoto(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if fi.Size() > MaxPhotoSize {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrTooLarge, fi.Size())
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ct := http.DetectContentType(b); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%s: %w (%s)", path, ErrNotImage, ct)
	}
	return b, nil
}

// ReadPhotos reads every path in order and stops at the first failure.
func ReadPhotos(paths []string) ([][]byte, error) {
	out := make([][]byte, 0, len(paths))
	for _, p := range paths {
		b, err := ReadPhoto(p)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// SavePhoto writes b to dir/name.jpg and returns the file path.
func SavePhoto(dir, name string, b []byte) (string, error) {
	path := filepath.Join(dir, filepath.Base(name)+".jpg")
	if err := os.WriteFile(path, b, 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
