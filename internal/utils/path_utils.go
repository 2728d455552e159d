package utils

import (
	"path/filepath"

	"github.com/funvibe/mscript/internal/config"
)

// ExtractProgramName derives a program name from a file path.
// It takes the base filename and removes any recognized source extension.
func ExtractProgramName(path string) string {
	return config.TrimSourceExt(filepath.Base(path))
}

// BundlePath returns the default output path of a compiled source file:
// the source path with its extension replaced by the bundle extension.
func BundlePath(sourcePath string) string {
	if config.HasSourceExt(sourcePath) {
		return config.TrimSourceExt(sourcePath) + config.BundleFileExt
	}
	return sourcePath + config.BundleFileExt
}
