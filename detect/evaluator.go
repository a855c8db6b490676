package detect

import (
	"context"
	"image"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/artbench/go-peopleart/dataset"
	"github.com/artbench/go-peopleart/metrics"
)

// Evaluator scores dataset splits with a live detector session.
type Evaluator struct {
	FS      afero.Fs
	Session *Session
	Log     zerolog.Logger
}

// EvaluateDir runs the detector over every image in imagesDir and scores
// the detections against the label files in labelsDir, returning mAP@50.
// Cancellation is honored between images.
func (e *Evaluator) EvaluateDir(ctx context.Context, imagesDir, labelsDir string) (float64, error) {
	truth, err := metrics.LoadTruth(e.FS, labelsDir, imagesDir)
	if err != nil {
		return 0, err
	}

	entries, err := afero.ReadDir(e.FS, imagesDir)
	if err != nil {
		return 0, errors.Wrapf(err, "read image dir %s", imagesDir)
	}

	preds := make(map[string][]metrics.Detection)
	for _, entry := range entries {
		if entry.IsDir() || !isImageName(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		path := filepath.Join(imagesDir, entry.Name())
		dets, err := e.detectFile(path)
		if err != nil {
			return 0, err
		}
		preds[dataset.ItemID(entry.Name())] = dets
	}

	return metrics.AP50(preds, truth), nil
}

// EvaluateList scores only the images named in listFile (one absolute path
// per line), with ground truth from labelsDir.
func (e *Evaluator) EvaluateList(ctx context.Context, listFile, labelsDir string) (float64, error) {
	data, err := afero.ReadFile(e.FS, listFile)
	if err != nil {
		return 0, errors.Wrapf(err, "read style list %s", listFile)
	}

	preds := make(map[string][]metrics.Detection)
	truth := make(map[string][]metrics.Box)
	// All listed paths live in one split's image directory; the ground
	// truth is loaded once from the first entry's directory.
	var all map[string][]metrics.Box
	for _, line := range strings.Split(string(data), "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		id := dataset.ItemID(filepath.Base(path))

		if all == nil {
			all, err = metrics.LoadTruth(e.FS, labelsDir, filepath.Dir(path))
			if err != nil {
				return 0, err
			}
		}
		boxes, ok := all[id]
		if !ok {
			return 0, errors.Errorf("no ground truth for listed image %s", path)
		}
		truth[id] = boxes

		dets, err := e.detectFile(path)
		if err != nil {
			return 0, err
		}
		preds[id] = dets
	}

	return metrics.AP50(preds, truth), nil
}

// SwapWeights replaces the session's model weights.
func (e *Evaluator) SwapWeights(modelPath string) error {
	return e.Session.SwapWeights(modelPath)
}

// Close releases the underlying session.
func (e *Evaluator) Close() error {
	return e.Session.Close()
}

func (e *Evaluator) detectFile(path string) ([]metrics.Detection, error) {
	f, err := e.FS.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode image %s", path)
	}

	dets, err := e.Session.Detect(img)
	if err != nil {
		return nil, errors.Wrapf(err, "detect %s", path)
	}
	e.Log.Debug().Str("image", path).Int("detections", len(dets)).Msg("scored image")
	return dets, nil
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
