// Package files owns the filesystem contract around a batch: which entries in
// a folder count as input images, where each one's output goes, and the
// output directory lifecycle.
package files

import (
	"os"
	"path/filepath"
	"strings"
)

// CroppedSuffix is appended to the base name of every output file.
const CroppedSuffix = "_cropped"

// DefaultOutputDirName is the folder used under the input directory when the
// caller does not name an output directory.
const DefaultOutputDirName = "output"

// imageExtensions is the fixed whitelist of accepted input extensions.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".gif":  true,
	".webp": true,
}

// IsImage reports whether name carries one of the accepted image extensions.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the paths of the image files directly inside dir, in
// enumeration order. Subdirectories and hidden dotfiles are skipped. The
// pipeline processes this list as-is and never re-sorts it.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || !IsImage(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// DestPath maps a source image path to its destination inside outputDir:
// name.ext becomes name_cropped.ext, keeping the original extension.
func DestPath(srcPath, outputDir string) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(outputDir, stem+CroppedSuffix+ext)
}

// EnsureDir creates dir if it does not exist; an existing directory is fine.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
