// Package chart - Bar-chart rendering of the benchmark results.
package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/artbench/go-peopleart/experiment"
)

const (
	canvasW = 1000
	canvasH = 600

	marginLeft   = 70.0
	marginRight  = 30.0
	marginTop    = 60.0
	marginBottom = 80.0
)

var (
	colorBaseline  = color.RGBA{128, 128, 128, 255}
	colorZeroShot  = color.RGBA{200, 40, 40, 255}
	colorFineTuned = color.RGBA{40, 150, 60, 255}
	colorOther     = color.RGBA{50, 90, 200, 255}
	colorAxis      = color.RGBA{0, 0, 0, 255}
)

// Render draws the scalar results as a bar chart with a dashed reference
// line at the published baseline, and writes it as PNG to path.
func Render(fs afero.Fs, results map[string]float64, baseline float64, path string) error {
	img := draw(results, baseline)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return errors.Wrap(err, "encode chart")
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write chart %s", path)
	}
	return nil
}

type entry struct {
	label string
	value float64
	fill  color.RGBA
}

func draw(results map[string]float64, baseline float64) *image.RGBA {
	dest := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	gc := draw2dimg.NewGraphicContext(dest)

	// White background.
	gc.SetFillColor(color.White)
	draw2dkit.Rectangle(gc, 0, 0, canvasW, canvasH)
	gc.Fill()

	entries := orderEntries(results)
	plotW := float64(canvasW) - marginLeft - marginRight
	plotH := float64(canvasH) - marginTop - marginBottom

	// y maps a [0,1] score into the plot.
	y := func(v float64) float64 {
		return marginTop + plotH*(1-v)
	}

	gc.SetFontData(chartFont)

	// Axes.
	gc.SetStrokeColor(colorAxis)
	gc.SetLineWidth(1.5)
	gc.MoveTo(marginLeft, marginTop)
	gc.LineTo(marginLeft, y(0))
	gc.LineTo(marginLeft+plotW, y(0))
	gc.Stroke()

	gc.SetFontSize(11)
	for _, tick := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		gc.SetFillColor(colorAxis)
		gc.FillStringAt(formatScore(tick, 2), 28, y(tick)+4)
		gc.MoveTo(marginLeft-4, y(tick))
		gc.LineTo(marginLeft, y(tick))
		gc.Stroke()
	}

	// Bars with value labels.
	if len(entries) > 0 {
		slot := plotW / float64(len(entries))
		barW := slot * 0.6
		for i, e := range entries {
			x := marginLeft + slot*float64(i) + (slot-barW)/2

			gc.SetFillColor(e.fill)
			draw2dkit.Rectangle(gc, x, y(e.value), x+barW, y(0))
			gc.Fill()

			gc.SetFillColor(colorAxis)
			gc.SetFontSize(12)
			gc.FillStringAt(formatScore(e.value, 3), x+barW/4, y(e.value)-6)
			gc.SetFontSize(11)
			gc.FillStringAt(e.label, x, y(0)+20)
		}
	}

	// Dashed reference line.
	gc.SetStrokeColor(colorZeroShot)
	gc.SetLineWidth(1)
	gc.SetLineDash([]float64{6, 4}, 0)
	gc.MoveTo(marginLeft, y(baseline))
	gc.LineTo(marginLeft+plotW, y(baseline))
	gc.Stroke()
	gc.SetLineDash(nil, 0)

	gc.SetFillColor(colorAxis)
	gc.SetFontSize(14)
	gc.FillStringAt("The Cross-Depiction Problem: Drop & Recovery", marginLeft, 30)

	return dest
}

// orderEntries puts the headline phases first, remaining keys sorted, with
// the original color coding: gray baseline, red drop, green recovery.
func orderEntries(results map[string]float64) []entry {
	var entries []entry
	add := func(key string, fill color.RGBA) {
		if v, ok := results[key]; ok {
			entries = append(entries, entry{label: key, value: v, fill: fill})
		}
	}
	add(experiment.KeyBaseline, colorBaseline)
	add(experiment.KeyZeroShot, colorZeroShot)
	add(experiment.KeyFineTuned, colorFineTuned)

	headline := map[string]struct{}{
		experiment.KeyBaseline:  {},
		experiment.KeyZeroShot:  {},
		experiment.KeyFineTuned: {},
	}
	var rest []string
	for key := range results {
		if _, ok := headline[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		entries = append(entries, entry{label: key, value: results[key], fill: colorOther})
	}
	return entries
}

func formatScore(v float64, decimals int) string {
	if decimals == 2 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.3f", v)
}
