package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artbench/go-peopleart/experiment"
)

func TestRenderWritesDecodablePNG(t *testing.T) {
	fs := afero.NewMemMapFs()
	results := map[string]float64{
		experiment.KeyBaseline:  0.62,
		experiment.KeyZeroShot:  0.31,
		experiment.KeyFineTuned: 0.55,
		experiment.KeyAbstract:  0.20,
		experiment.KeyRealistic: 0.45,
	}

	require.NoError(t, Render(fs, results, 0.45, "/chart.png"))

	data, err := afero.ReadFile(fs, "/chart.png")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, canvasW, img.Bounds().Dx())
	assert.Equal(t, canvasH, img.Bounds().Dy())
}

// Bar labels are drawn text, so renders that differ only in a label must
// produce different images. Guards the font registration in font.go: with
// no registered face draw2d silently skips every string draw.
func TestRenderDrawsLabels(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, Render(fs, map[string]float64{"Baroque": 0.5}, 0.45, "/a.png"))
	require.NoError(t, Render(fs, map[string]float64{"Cubismx": 0.5}, 0.45, "/b.png"))

	a, err := afero.ReadFile(fs, "/a.png")
	require.NoError(t, err)
	b, err := afero.ReadFile(fs, "/b.png")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRenderEmptyResults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Render(fs, map[string]float64{}, 0.45, "/chart.png"))

	ok, err := afero.Exists(fs, "/chart.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderEntries(t *testing.T) {
	entries := orderEntries(map[string]float64{
		"Realistic Art":          0.4,
		experiment.KeyFineTuned:  0.5,
		experiment.KeyBaseline:   0.6,
		"Abstract Art":           0.2,
	})

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.label
	}
	assert.Equal(t, []string{
		experiment.KeyBaseline,
		experiment.KeyFineTuned,
		"Abstract Art",
		"Realistic Art",
	}, labels)
	assert.Equal(t, colorBaseline, entries[0].fill)
	assert.Equal(t, colorFineTuned, entries[1].fill)
}
