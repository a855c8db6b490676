package metrics

import (
	"bufio"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	// Registers the decoders ground-truth image probing relies on.
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// LoadTruth reads every YOLO label file in labelDir back into pixel-space
// boxes, keyed by item identifier. Each label's coordinates are denormalized
// against the dimensions of the paired image in imageDir.
func LoadTruth(fs afero.Fs, labelDir, imageDir string) (map[string][]Box, error) {
	entries, err := afero.ReadDir(fs, labelDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read label dir %s", labelDir)
	}

	truth := make(map[string][]Box)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".txt")

		imgPath, err := findImage(fs, imageDir, id)
		if err != nil {
			return nil, err
		}
		w, h, err := imageDims(fs, imgPath)
		if err != nil {
			return nil, err
		}

		data, err := afero.ReadFile(fs, filepath.Join(labelDir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "read label %s", entry.Name())
		}
		boxes, err := parseLabels(string(data), w, h)
		if err != nil {
			return nil, errors.Wrapf(err, "parse label %s", entry.Name())
		}
		truth[id] = boxes
	}
	return truth, nil
}

func parseLabels(data string, w, h int) ([]Box, error) {
	var boxes []Box
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var cls int
		var cx, cy, bw, bh float64
		if _, err := fmt.Sscanf(line, "%d %f %f %f %f", &cls, &cx, &cy, &bw, &bh); err != nil {
			return nil, errors.Wrapf(err, "label line %q", line)
		}
		boxes = append(boxes, Box{
			X1: float32((cx - bw/2) * float64(w)),
			Y1: float32((cy - bh/2) * float64(h)),
			X2: float32((cx + bw/2) * float64(w)),
			Y2: float32((cy + bh/2) * float64(h)),
		})
	}
	return boxes, sc.Err()
}

func findImage(fs afero.Fs, imageDir, id string) (string, error) {
	for _, ext := range []string{".jpg", ".JPG", ".jpeg", ".png"} {
		p := filepath.Join(imageDir, id+ext)
		if ok, _ := afero.Exists(fs, p); ok {
			return p, nil
		}
	}
	return "", errors.Errorf("no image for label %s under %s", id, imageDir)
}

func imageDims(fs afero.Fs, path string) (int, int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "open image %s", path)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "decode image %s", path)
	}
	return cfg.Width, cfg.Height, nil
}
