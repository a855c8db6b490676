// Command peopleart prepares the PeopleArt dataset and runs the
// cross-depiction benchmark phases against a pretrained detector.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/artbench/go-peopleart/chart"
	"github.com/artbench/go-peopleart/config"
	"github.com/artbench/go-peopleart/dataset"
	"github.com/artbench/go-peopleart/detect"
	"github.com/artbench/go-peopleart/experiment"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML configuration file")
		rawRoot    = flag.String("raw", "", "Raw dataset root (overrides config)")
		outRoot    = flag.String("out", "", "Processed dataset root (overrides config)")
		modelPath  = flag.String("model", "", "Pretrained ONNX model path (overrides config)")
		tunedPath  = flag.String("tuned-model", "", "Fine-tuned ONNX model path (overrides config)")
		baseline   = flag.String("baseline", "", "Photographic baseline dataset root (overrides config)")
		reportDir  = flag.String("reports", "", "Report output directory (overrides config)")
		chartPath  = flag.String("chart", "replication_result_chart.png", "Result chart path (empty disables)")
		skipEval   = flag.Bool("skip-eval", false, "Only prepare the dataset, skip the benchmark phases")
		timeout    = flag.Duration("timeout", 2*time.Hour, "Benchmark timeout duration")
		verbose    = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	fs := afero.NewOsFs()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(fs, *configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
	}
	applyOverride(&cfg.RawRoot, *rawRoot)
	if *outRoot != "" {
		cfg.ProcessedRoot = *outRoot
		cfg.StyleListDir = filepath.Join(*outRoot, "style_lists")
	}
	applyOverride(&cfg.ModelPath, *modelPath)
	applyOverride(&cfg.TunedModelPath, *tunedPath)
	applyOverride(&cfg.BaselineDir, *baseline)
	applyOverride(&cfg.ReportDir, *reportDir)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if ok, _ := afero.DirExists(fs, cfg.RawRoot); !ok {
		log.Error().Str("path", cfg.RawRoot).Msg("raw dataset root not found")
		log.Error().Msgf("download the PeopleArt dataset and extract it into %q", cfg.RawRoot)
		os.Exit(1)
	}

	res, err := dataset.Builder{Cfg: cfg, FS: fs, Log: log}.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("data processing failed")
	}
	log.Info().
		Int("train", res.Counts["train"]).
		Int("val", res.Counts["val"]).
		Int("test", res.Counts["test"]).
		Str("descriptor", res.DescriptorPath).
		Msg("dataset ready")

	if *skipEval {
		return
	}

	session, err := detect.NewSession(detect.SessionConfig{
		ModelPath:  cfg.ModelPath,
		InputSize:  cfg.InputSize,
		Classes:    len(cfg.Classes),
		Confidence: cfg.Confidence,
		NMSIoU:     cfg.NMSIoU,
	})
	if err != nil {
		log.Fatal().Err(err).Str("model", cfg.ModelPath).Msg("failed to load detector")
	}
	evaluator := &detect.Evaluator{FS: fs, Session: session, Log: log}
	defer evaluator.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	runner := experiment.NewRunner(cfg, fs, evaluator, log)
	if err := runner.RunAll(ctx); err != nil {
		log.Fatal().Err(err).Msg("benchmark failed")
	}

	scalars, err := runner.Conclusion()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write reports")
	}

	if *chartPath != "" {
		if err := chart.Render(fs, scalars, cfg.ReferenceBaseline, *chartPath); err != nil {
			log.Warn().Err(err).Msg("failed to render chart")
		} else {
			log.Info().Str("path", *chartPath).Msg("result chart saved")
		}
	}

	fmt.Println("benchmark complete")
}

func applyOverride(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Cross-depiction detection benchmark over the PeopleArt dataset.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -raw ./raw_people_art -model ./models/yolov8n.onnx\n",
			filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "  %s -raw ./raw_people_art -skip-eval\n",
			filepath.Base(os.Args[0]))
	}
}
