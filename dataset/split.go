package dataset

import (
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/artbench/go-peopleart/config"
)

// Fatal split-build failures.
var (
	// ErrNoImages means discovery found zero source images.
	ErrNoImages = errors.New("no images found under raw root")
	// ErrNoValidPairs means no image survived annotation matching.
	ErrNoValidPairs = errors.New("no valid image+annotation pairs found")
)

// Split names in build order.
var Splits = []string{"train", "val", "test"}

// Builder constructs the processed dataset from the raw tree.
type Builder struct {
	Cfg config.Config
	FS  afero.Fs
	Log zerolog.Logger
}

// Result summarizes one split build.
type Result struct {
	// Counts is the number of copied image+label pairs per split.
	Counts map[string]int
	// Total is the sum over all splits.
	Total int
	// StyleLists are the retained per-style list files, sorted.
	StyleLists []string
	// DescriptorPath is the written dataset descriptor.
	DescriptorPath string
}

// Build runs the full ingestion: fresh output root, annotation index, style
// membership, deterministic shuffle and slice, per-item conversion and
// placement, style list persistence, and the dataset descriptor.
//
// The delete-then-rebuild of the processed root is the sole consistency
// mechanism; a crashed run is repaired by the next run's fresh start.
func (b Builder) Build() (*Result, error) {
	cfg := b.Cfg

	if err := b.FS.RemoveAll(cfg.ProcessedRoot); err != nil {
		return nil, errors.Wrapf(err, "remove processed root %s", cfg.ProcessedRoot)
	}

	b.Log.Info().Str("raw", cfg.RawRoot).Msg("starting data ingestion")

	index, err := Indexer{FS: b.FS, Root: cfg.RawRoot, Log: b.Log}.Index()
	if err != nil {
		return nil, err
	}
	loaded, styles := StyleLoader{FS: b.FS, Root: cfg.RawRoot, Cfg: cfg, Log: b.Log}.Load()
	resolver := NewStyleResolver(cfg, loaded, styles)

	images, err := b.discoverImages()
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, errors.Wrapf(ErrNoImages, "raw root %s", cfg.RawRoot)
	}
	b.Log.Info().Int("count", len(images)).Msg("found raw images")

	rng := rand.New(rand.NewSource(cfg.Seed))
	rng.Shuffle(len(images), func(i, j int) {
		images[i], images[j] = images[j], images[i]
	})

	n := len(images)
	cutTrain := int(float64(n) * cfg.TrainFraction)
	cutVal := int(float64(n) * (cfg.TrainFraction + cfg.ValFraction))
	subsets := map[string][]string{
		"train": images[:cutTrain],
		"val":   images[cutTrain:cutVal],
		"test":  images[cutVal:],
	}

	if err := b.FS.MkdirAll(cfg.StyleListDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create style list dir %s", cfg.StyleListDir)
	}

	conv := Converter{FS: b.FS, Cfg: cfg}
	styleBuffers := make(map[string][]string)
	res := &Result{Counts: make(map[string]int)}

	for _, split := range Splits {
		imgDir := filepath.Join(cfg.ProcessedRoot, "images", split)
		lblDir := filepath.Join(cfg.ProcessedRoot, "labels", split)
		if err := b.FS.MkdirAll(imgDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", imgDir)
		}
		if err := b.FS.MkdirAll(lblDir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", lblDir)
		}

		for _, imgPath := range subsets[split] {
			fname := filepath.Base(imgPath)
			id := ItemID(fname)

			annPath, indexed := index[id]
			if !indexed {
				continue
			}
			lines, status := conv.Convert(annPath)
			if status != ConvertOK {
				b.Log.Debug().
					Str("annotation", annPath).
					Stringer("reason", status).
					Msg("dropping image")
				continue
			}

			dest := absPath(filepath.Join(imgDir, fname))
			if err := copyFile(b.FS, imgPath, dest); err != nil {
				return nil, errors.Wrapf(err, "copy %s", imgPath)
			}
			label := filepath.Join(lblDir, id+".txt")
			if err := afero.WriteFile(b.FS, label, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
				return nil, errors.Wrapf(err, "write %s", label)
			}

			res.Counts[split]++
			res.Total++

			if split == "test" {
				if style := resolver.Resolve(id, imgPath); style != StyleUnknown {
					styleBuffers[style] = append(styleBuffers[style], dest)
				}
			}
		}
	}

	for style, paths := range styleBuffers {
		if len(paths) <= cfg.MinStyleMembers {
			b.Log.Debug().Str("style", style).Int("members", len(paths)).
				Msg("dropping small style")
			continue
		}
		listPath := filepath.Join(cfg.StyleListDir, style+".txt")
		if err := afero.WriteFile(b.FS, listPath, []byte(strings.Join(paths, "\n")), 0o644); err != nil {
			return nil, errors.Wrapf(err, "write style list %s", listPath)
		}
		res.StyleLists = append(res.StyleLists, listPath)
	}
	sort.Strings(res.StyleLists)

	b.Log.Info().
		Int("total", res.Total).
		Int("train", res.Counts["train"]).
		Int("val", res.Counts["val"]).
		Int("test", res.Counts["test"]).
		Msg("processing complete")

	if res.Total == 0 {
		return nil, ErrNoValidPairs
	}

	res.DescriptorPath, err = WriteManifest(b.FS, cfg)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// discoverImages walks the raw root for .jpg files, case-insensitive on the
// extension, collapsing paths that differ only in case. The walk order is
// lexical, so the pre-shuffle ordering is stable across machines.
func (b Builder) discoverImages() ([]string, error) {
	var images []string
	seen := make(map[string]struct{})

	err := afero.Walk(b.FS, b.Cfg.RawRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".jpg" {
			return nil
		}
		lower := strings.ToLower(path)
		if _, dup := seen[lower]; dup {
			return nil
		}
		seen[lower] = struct{}{}
		images = append(images, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "discover images under %s", b.Cfg.RawRoot)
	}
	return images, nil
}

func copyFile(fs afero.Fs, src, dest string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// absPath resolves a path against the working directory. Style lists carry
// absolute image paths so the descriptor consumer can read them anywhere.
func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
