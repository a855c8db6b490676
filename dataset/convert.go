package dataset

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"github.com/artbench/go-peopleart/config"
	"github.com/artbench/go-peopleart/voc"
)

// ConvertStatus reports why a conversion produced no lines. The pipeline
// drops the image either way; the status lets callers log the causes apart.
type ConvertStatus int

const (
	// ConvertOK means at least one recognized object was emitted.
	ConvertOK ConvertStatus = iota
	// ConvertNoMatch means the file parsed but held no recognized object.
	ConvertNoMatch
	// ConvertBadDims means the declared width or height was not positive.
	ConvertBadDims
	// ConvertParseError means the file could not be read or parsed.
	ConvertParseError
)

func (s ConvertStatus) String() string {
	switch s {
	case ConvertOK:
		return "ok"
	case ConvertNoMatch:
		return "no recognized objects"
	case ConvertBadDims:
		return "non-positive dimensions"
	case ConvertParseError:
		return "parse error"
	}
	return "unknown"
}

// Converter turns one annotation file into normalized label lines.
type Converter struct {
	FS  afero.Fs
	Cfg config.Config
}

// Convert parses the annotation at path and emits one line per recognized
// object: "<classIndex> <cx> <cy> <w> <h>", each coordinate a fraction of
// the image dimensions formatted to six decimals. A file with zero
// recognized objects yields no lines even when other objects are present.
func (c Converter) Convert(path string) ([]string, ConvertStatus) {
	ann, err := voc.DecodeFile(c.FS, path)
	if err != nil {
		return nil, ConvertParseError
	}

	w, h := ann.Size.Width, ann.Size.Height
	if w <= 0 || h <= 0 {
		return nil, ConvertBadDims
	}

	var lines []string
	for _, obj := range ann.Objects {
		name := strings.ToLower(strings.TrimSpace(obj.Name))
		cls := c.Cfg.ClassIndex(name)
		if cls < 0 {
			continue
		}
		b := obj.BndBox
		cx := (b.XMin + b.XMax) / 2 / float64(w)
		cy := (b.YMin + b.YMax) / 2 / float64(h)
		bw := (b.XMax - b.XMin) / float64(w)
		bh := (b.YMax - b.YMin) / float64(h)
		lines = append(lines, fmt.Sprintf("%d %.6f %.6f %.6f %.6f", cls, cx, cy, bw, bh))
	}

	if len(lines) == 0 {
		return nil, ConvertNoMatch
	}
	return lines, ConvertOK
}
