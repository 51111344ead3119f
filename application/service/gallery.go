package service

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed gallery.yaml
var defaultManifest []byte

// Example is a sample image offered under the upload form.
type Example struct {
	Name      string `yaml:"name" json:"name"`
	Character string `yaml:"character" json:"character"`
	Available bool   `yaml:"-" json:"available"`
}

type manifest struct {
	Examples []Example `yaml:"examples"`
}

// Gallery serves the sample images listed in its manifest from a directory.
type Gallery struct {
	dir      string
	examples []Example
}

// GalleryOption is a functional option for Gallery.
type GalleryOption func(*galleryOptions)

type galleryOptions struct {
	manifest []byte
}

// WithManifest replaces the built-in manifest.
func WithManifest(data []byte) GalleryOption {
	return func(o *galleryOptions) { o.manifest = data }
}

// NewGallery creates a Gallery rooted at dir.
func NewGallery(dir string, opts ...GalleryOption) (*Gallery, error) {
	o := galleryOptions{manifest: defaultManifest}
	for _, opt := range opts {
		opt(&o)
	}

	var m manifest
	if err := yaml.Unmarshal(o.manifest, &m); err != nil {
		return nil, fmt.Errorf("parse gallery manifest: %w", err)
	}

	seen := make(map[string]struct{}, len(m.Examples))
	for _, e := range m.Examples {
		if e.Name == "" || e.Name != filepath.Base(e.Name) {
			return nil, fmt.Errorf("invalid example name %q", e.Name)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate example name %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	return &Gallery{dir: dir, examples: m.Examples}, nil
}

// Dir returns the directory images are read from.
func (g *Gallery) Dir() string { return g.dir }

// List returns the manifest entries in order, flagging which files exist.
func (g *Gallery) List() []Example {
	out := make([]Example, len(g.examples))
	for i, e := range g.examples {
		e.Available = fileExists(filepath.Join(g.dir, e.Name))
		out[i] = e
	}
	return out
}

// Open returns the bytes of a listed example. Names outside the manifest
// are rejected.
func (g *Gallery) Open(name string) ([]byte, error) {
	if !g.listed(name) {
		return nil, fmt.Errorf("%w: %s", ErrExampleNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(g.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrExampleNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read example %s: %w", name, err)
	}
	return data, nil
}

func (g *Gallery) listed(name string) bool {
	for _, e := range g.examples {
		if e.Name == name {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
