package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	v1 "github.com/aevon-lab/tally/internal/api/v1"
	"gopkg.in/yaml.v3"
)

// File is the on-disk registry shape.
type File struct {
	Groups  []v1.GroupConfig  `yaml:"groups"`
	Sources []v1.SourceConfig `yaml:"sources"`
}

// LoadFile reads the registry file at path. A missing file is an empty registry.
// Unknown keys are rejected, so a misspelled aggregate kind fails loudly.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry file %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing registry file %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes registry YAML.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}
