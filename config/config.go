// Package config - Run configuration for the cross-depiction benchmark.
package config

import (
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config carries every knob of the pipeline. It is built once at startup and
// passed by value into each component; nothing mutates it afterwards.
type Config struct {
	// RawRoot is the directory holding the raw dataset (images + annotations).
	RawRoot string `json:"rawRoot"        yaml:"rawRoot"`
	// ProcessedRoot is the directory the split build deletes and recreates.
	ProcessedRoot string `json:"processedRoot"  yaml:"processedRoot"`
	// StyleListDir holds one path-list file per retained style.
	StyleListDir string `json:"styleListDir"   yaml:"styleListDir"`
	// DescriptorPath is where the dataset descriptor is written.
	DescriptorPath string `json:"descriptorPath" yaml:"descriptorPath"`
	// ReportDir holds the final JSON/text reports.
	ReportDir string `json:"reportDir"      yaml:"reportDir"`

	// ModelPath is the pretrained detector weights (ONNX).
	ModelPath string `json:"modelPath"      yaml:"modelPath"`
	// TunedModelPath is where externally fine-tuned weights are looked for.
	TunedModelPath string `json:"tunedModelPath" yaml:"tunedModelPath"`
	// BaselineDir is an optional photographic dataset laid out like the
	// processed root, used for the baseline phase. Empty skips the phase.
	BaselineDir string `json:"baselineDir"    yaml:"baselineDir"`

	// Classes maps class index to label name. Index 0 is "person".
	Classes []string `json:"classes" yaml:"classes"`

	// Split fractions. Must sum to 1.
	TrainFraction float64 `json:"trainFraction" yaml:"trainFraction"`
	ValFraction   float64 `json:"valFraction"   yaml:"valFraction"`
	TestFraction  float64 `json:"testFraction"  yaml:"testFraction"`
	// Seed drives the split shuffle. Fixed so the partition is reproducible
	// across runs and machines for the same discovered set.
	Seed int64 `json:"seed" yaml:"seed"`

	// MinStyleMembers is the exclusive lower bound on test-subset members a
	// style needs before its list file is written.
	MinStyleMembers int `json:"minStyleMembers" yaml:"minStyleMembers"`
	// ReservedDirs are parent directory names that never count as a style.
	ReservedDirs []string `json:"reservedDirs" yaml:"reservedDirs"`
	// ReservedSets are membership file stems that are split names, not styles.
	ReservedSets []string `json:"reservedSets" yaml:"reservedSets"`

	// Abstraction grouping for the divergence phase.
	HighAbstraction []string `json:"highAbstraction" yaml:"highAbstraction"`
	LowAbstraction  []string `json:"lowAbstraction"  yaml:"lowAbstraction"`

	// ReferenceBaseline is the published 2016 cross-depiction mAP@50.
	ReferenceBaseline float64 `json:"referenceBaseline" yaml:"referenceBaseline"`

	// Detector thresholds.
	Confidence float32 `json:"confidence" yaml:"confidence"`
	NMSIoU     float32 `json:"nmsIoU"     yaml:"nmsIoU"`
	InputSize  int     `json:"inputSize"  yaml:"inputSize"`
}

// Default returns the canonical configuration.
func Default() Config {
	return Config{
		RawRoot:        "raw_people_art",
		ProcessedRoot:  "datasets/PeopleArt_Replication",
		StyleListDir:   "datasets/PeopleArt_Replication/style_lists",
		DescriptorPath: "peopleart_replication.yaml",
		ReportDir:      "replication_results",

		ModelPath:      "models/yolov8n.onnx",
		TunedModelPath: "model/trained_art_model.onnx",

		Classes: []string{"person"},

		TrainFraction: 0.70,
		ValFraction:   0.15,
		TestFraction:  0.15,
		Seed:          42,

		MinStyleMembers: 5,
		ReservedDirs:    []string{"JPEGImages", "images", "train", "val", "test"},
		ReservedSets:    []string{"train", "val", "test", "trainval"},

		HighAbstraction: []string{
			"Cubism", "Expressionism", "Impressionism", "Pop Art", "Modern Art",
		},
		LowAbstraction: []string{
			"Baroque", "Renaissance", "Realism", "Neoclassicism", "Romanticism",
			"Dutch Golden Age",
		},

		ReferenceBaseline: 0.45,

		Confidence: 0.25,
		NMSIoU:     0.45,
		InputSize:  640,
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(fs afero.Fs, cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	if len(c.Classes) == 0 {
		return errors.New("config: at least one class is required")
	}
	sum := c.TrainFraction + c.ValFraction + c.TestFraction
	if math.Abs(sum-1.0) > 1e-9 {
		return errors.Errorf("config: split fractions sum to %v, want 1.0", sum)
	}
	if c.MinStyleMembers < 0 {
		return errors.New("config: minStyleMembers must not be negative")
	}
	if c.InputSize <= 0 {
		return errors.New("config: inputSize must be positive")
	}
	return nil
}

// ClassIndex returns the index for a label name, or -1 if unrecognized.
func (c Config) ClassIndex(name string) int {
	for i, cls := range c.Classes {
		if cls == name {
			return i
		}
	}
	return -1
}
