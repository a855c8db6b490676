package dataset

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/artbench/go-peopleart/config"
)

// Descriptor is the dataset document handed to the detector library.
type Descriptor struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Test  string         `yaml:"test"`
	Names map[int]string `yaml:"names"`
}

// NewDescriptor builds the descriptor for a configuration.
func NewDescriptor(cfg config.Config) Descriptor {
	names := make(map[int]string, len(cfg.Classes))
	for i, cls := range cfg.Classes {
		names[i] = cls
	}
	return Descriptor{
		Path:  absPath(cfg.ProcessedRoot),
		Train: "images/train",
		Val:   "images/val",
		Test:  "images/test",
		Names: names,
	}
}

// WriteManifest writes the descriptor to the configured path, overwriting
// any existing file, and returns that path.
func WriteManifest(fs afero.Fs, cfg config.Config) (string, error) {
	data, err := yaml.Marshal(NewDescriptor(cfg))
	if err != nil {
		return "", errors.Wrap(err, "marshal dataset descriptor")
	}
	if err := afero.WriteFile(fs, cfg.DescriptorPath, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write dataset descriptor %s", cfg.DescriptorPath)
	}
	return cfg.DescriptorPath, nil
}

// ReadManifest loads a descriptor back from disk.
func ReadManifest(fs afero.Fs, path string) (Descriptor, error) {
	var d Descriptor
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return d, errors.Wrapf(err, "read dataset descriptor %s", path)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, errors.Wrapf(err, "parse dataset descriptor %s", path)
	}
	return d, nil
}
