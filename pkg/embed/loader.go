package mscript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/funvibe/mscript/internal/config"
)

// ErrSourceNotFound is returned by loaders that have no source for a name.
var ErrSourceNotFound = errors.New("source not found")

// SourceLoader supplies script source text by program name. It is the
// system's only access to files.
type SourceLoader interface {
	Load(name string) (string, error)
}

// MapLoader serves sources from memory, keyed by name.
type MapLoader map[string]string

func (m MapLoader) Load(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSourceNotFound, name)
	}
	return src, nil
}

// DirLoader reads sources from a directory. A name without a recognized
// extension is tried with each source extension in turn.
type DirLoader struct {
	Root string
}

func (d DirLoader) Load(name string) (string, error) {
	candidates := []string{name}
	if !config.HasSourceExt(name) {
		for _, ext := range config.SourceFileExtensions {
			candidates = append(candidates, name+ext)
		}
	}
	for _, c := range candidates {
		path := c
		if !filepath.IsAbs(path) {
			path = filepath.Join(d.Root, c)
		}
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSourceNotFound, name)
}
