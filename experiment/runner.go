// Package experiment - The five-phase cross-depiction benchmark.
package experiment

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/artbench/go-peopleart/config"
)

// Result keys, kept verbatim in the reports.
const (
	KeyBaseline  = "Photo (Baseline)"
	KeyZeroShot  = "Art (Zero-Shot)"
	KeyFineTuned = "Art (Fine-Tuned)"
	KeyAbstract  = "Abstract Art"
	KeyRealistic = "Realistic Art"
	KeyStyles    = "Style Breakdown"
)

// Evaluator is the narrow interface to the detector library. The core hands
// it directories, list files, and weight paths, and treats the returned
// mAP@50 as an opaque scalar.
type Evaluator interface {
	EvaluateDir(ctx context.Context, imagesDir, labelsDir string) (float64, error)
	EvaluateList(ctx context.Context, listFile, labelsDir string) (float64, error)
	SwapWeights(modelPath string) error
	Close() error
}

// Results aggregates phase outcomes.
type Results struct {
	// Scalars holds the headline mAP@50 values by result key.
	Scalars map[string]float64
	// Styles holds the per-style breakdown from the analysis phase.
	Styles map[string]float64
}

// Runner drives the benchmark phases over a prepared dataset.
type Runner struct {
	cfg  config.Config
	fs   afero.Fs
	eval Evaluator
	log  zerolog.Logger

	results Results
}

// NewRunner builds a runner over a prepared processed root.
func NewRunner(cfg config.Config, fs afero.Fs, eval Evaluator, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:  cfg,
		fs:   fs,
		eval: eval,
		log:  log,
		results: Results{
			Scalars: make(map[string]float64),
			Styles:  make(map[string]float64),
		},
	}
}

// Results returns the accumulated outcomes.
func (r *Runner) Results() Results {
	return r.results
}

// RunAll executes every phase in order.
func (r *Runner) RunAll(ctx context.Context) error {
	if err := r.RunBaseline(ctx); err != nil {
		return err
	}
	if err := r.RunZeroShot(ctx); err != nil {
		return err
	}
	if err := r.RunAdaptation(ctx); err != nil {
		return err
	}
	r.RunStyleAnalysis(ctx)
	r.RunDivergence()
	return ctx.Err()
}

// RunBaseline scores the detector on the photographic dataset. The phase is
// skipped with a warning when no baseline dataset is configured.
func (r *Runner) RunBaseline(ctx context.Context) error {
	r.log.Info().Msg("phase 1: establishing photographic baseline")
	if r.cfg.BaselineDir == "" {
		r.log.Warn().Msg("no baseline dataset configured, skipping phase 1")
		return nil
	}

	score, err := r.eval.EvaluateDir(ctx,
		filepath.Join(r.cfg.BaselineDir, "images", "val"),
		filepath.Join(r.cfg.BaselineDir, "labels", "val"))
	if err != nil {
		return errors.Wrap(err, "baseline evaluation")
	}
	r.results.Scalars[KeyBaseline] = score
	r.log.Info().Float64("map50", score).Msg("baseline established")
	return nil
}

// RunZeroShot scores the pretrained detector on the art test subset.
func (r *Runner) RunZeroShot(ctx context.Context) error {
	r.log.Info().Msg("phase 2: cross-depiction zero-shot test")

	score, err := r.splitScore(ctx, "test")
	if err != nil {
		return errors.Wrap(err, "zero-shot evaluation")
	}
	r.results.Scalars[KeyZeroShot] = score
	r.log.Info().Float64("map50", score).Msg("zero-shot art score")
	return nil
}

// RunAdaptation loads externally fine-tuned weights when present and
// re-scores the test subset. Training itself happens outside this system;
// without cached weights the phase is skipped.
func (r *Runner) RunAdaptation(ctx context.Context) error {
	r.log.Info().Msg("phase 3: adaptation (fine-tuned weights)")

	tuned := r.cfg.TunedModelPath
	if ok, _ := afero.Exists(r.fs, tuned); !ok {
		r.log.Warn().Str("path", tuned).
			Msg("no fine-tuned weights found, train externally and re-run; skipping phase 3")
		return nil
	}

	if err := r.eval.SwapWeights(tuned); err != nil {
		return errors.Wrapf(err, "load fine-tuned weights %s", tuned)
	}
	r.log.Info().Str("path", tuned).Msg("loaded fine-tuned weights")

	score, err := r.splitScore(ctx, "test")
	if err != nil {
		return errors.Wrap(err, "fine-tuned evaluation")
	}
	r.results.Scalars[KeyFineTuned] = score
	r.log.Info().Float64("map50", score).Msg("fine-tuned art score")
	return nil
}

// RunStyleAnalysis scores each retained style list. A failing style is
// logged and omitted from the breakdown; the phase itself never fails.
func (r *Runner) RunStyleAnalysis(ctx context.Context) {
	r.log.Info().Msg("phase 4: style-specific analysis")

	lists, err := afero.Glob(r.fs, filepath.Join(r.cfg.StyleListDir, "*.txt"))
	if err != nil || len(lists) == 0 {
		r.log.Warn().Msg("no style lists available")
		return
	}

	labelsDir := filepath.Join(r.cfg.ProcessedRoot, "labels", "test")
	for _, list := range lists {
		style := strings.TrimSuffix(filepath.Base(list), filepath.Ext(list))
		score, err := r.eval.EvaluateList(ctx, list, labelsDir)
		if err != nil {
			r.log.Warn().Err(err).Str("style", style).Msg("style evaluation failed, omitting")
			continue
		}
		r.results.Styles[style] = score
		r.log.Info().Str("style", style).Float64("map50", score).Msg("style scored")
	}
}

// RunDivergence averages style scores into abstraction groups.
func (r *Runner) RunDivergence() {
	r.log.Info().Msg("phase 5: abstraction divergence")

	var high, low []float64
	for style, score := range r.results.Styles {
		switch {
		case containsAny(style, r.cfg.HighAbstraction):
			high = append(high, score)
		case containsAny(style, r.cfg.LowAbstraction):
			low = append(low, score)
		}
	}

	r.results.Scalars[KeyAbstract] = mean(high)
	r.results.Scalars[KeyRealistic] = mean(low)
	r.log.Info().
		Float64("abstract", r.results.Scalars[KeyAbstract]).
		Float64("realistic", r.results.Scalars[KeyRealistic]).
		Msg("divergence computed")
}

func (r *Runner) splitScore(ctx context.Context, split string) (float64, error) {
	return r.eval.EvaluateDir(ctx,
		filepath.Join(r.cfg.ProcessedRoot, "images", split),
		filepath.Join(r.cfg.ProcessedRoot, "labels", split))
}

// containsAny reports whether any term occurs in name, case-insensitive.
// "Post-Impressionism" matches the "Impressionism" grouping term.
func containsAny(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
