package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artbench/go-peopleart/config"
)

func annotationXML(w, h int, objects ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<annotation><size><width>%d</width><height>%d</height></size>", w, h)
	for _, obj := range objects {
		sb.WriteString(obj)
	}
	sb.WriteString("</annotation>")
	return sb.String()
}

func objectXML(name string, xmin, xmax, ymin, ymax float64) string {
	return fmt.Sprintf("<object><name>%s</name><bndbox>"+
		"<xmin>%g</xmin><xmax>%g</xmax><ymin>%g</ymin><ymax>%g</ymax>"+
		"</bndbox></object>", name, xmin, xmax, ymin, ymax)
}

func newConverter(t *testing.T, doc string) Converter {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.xml", []byte(doc), 0o644))
	return Converter{FS: fs, Cfg: config.Default()}
}

func TestConvertPerson(t *testing.T) {
	conv := newConverter(t, annotationXML(100, 100, objectXML("person", 10, 50, 10, 90)))

	lines, status := conv.Convert("/a.xml")
	require.Equal(t, ConvertOK, status)
	require.Equal(t, []string{"0 0.300000 0.500000 0.400000 0.800000"}, lines)
}

func TestConvertNormalizesLabelCase(t *testing.T) {
	conv := newConverter(t, annotationXML(100, 100, objectXML(" Person ", 0, 10, 0, 10)))

	_, status := conv.Convert("/a.xml")
	assert.Equal(t, ConvertOK, status)
}

func TestConvertZeroDimensions(t *testing.T) {
	for _, doc := range []string{
		annotationXML(0, 100, objectXML("person", 10, 50, 10, 90)),
		annotationXML(100, 0, objectXML("person", 10, 50, 10, 90)),
		`<annotation><object><name>person</name></object></annotation>`,
	} {
		conv := newConverter(t, doc)
		lines, status := conv.Convert("/a.xml")
		assert.Equal(t, ConvertBadDims, status)
		assert.Empty(t, lines)
	}
}

func TestConvertNoRecognizedObjects(t *testing.T) {
	// Other objects alone do not admit the image into the dataset.
	conv := newConverter(t, annotationXML(100, 100,
		objectXML("dog", 0, 10, 0, 10),
		objectXML("horse", 5, 20, 5, 20)))

	lines, status := conv.Convert("/a.xml")
	assert.Equal(t, ConvertNoMatch, status)
	assert.Empty(t, lines)
}

func TestConvertParseFailure(t *testing.T) {
	conv := newConverter(t, "<annotation><size><width>10")

	lines, status := conv.Convert("/a.xml")
	assert.Equal(t, ConvertParseError, status)
	assert.Empty(t, lines)

	_, status = conv.Convert("/missing.xml")
	assert.Equal(t, ConvertParseError, status)
}

func TestConvertMixedObjectsKeepsOnlyPersons(t *testing.T) {
	conv := newConverter(t, annotationXML(200, 100,
		objectXML("person", 20, 60, 10, 50),
		objectXML("dog", 0, 10, 0, 10),
		objectXML("person", 100, 200, 0, 100)))

	lines, status := conv.Convert("/a.xml")
	require.Equal(t, ConvertOK, status)
	require.Len(t, lines, 2)
	assert.Equal(t, "0 0.200000 0.300000 0.200000 0.400000", lines[0])
	assert.Equal(t, "0 0.750000 0.500000 0.500000 1.000000", lines[1])
}

// parseLine splits a label line back into class and coordinates.
func parseLine(t *testing.T, line string) (int, [4]float64) {
	t.Helper()
	fields := strings.Fields(line)
	require.Len(t, fields, 5)
	cls, err := strconv.Atoi(fields[0])
	require.NoError(t, err)
	var coords [4]float64
	for i, f := range fields[1:] {
		coords[i], err = strconv.ParseFloat(f, 64)
		require.NoError(t, err)
	}
	return cls, coords
}

func TestConvertRoundTrip(t *testing.T) {
	boxes := []struct {
		w, h                   int
		xmin, xmax, ymin, ymax float64
	}{
		{100, 100, 10, 50, 10, 90},
		{640, 480, 0, 640, 0, 480},
		{123, 457, 17.5, 101.25, 3, 455},
		{1000, 10, 999, 1000, 9, 10},
	}
	for _, b := range boxes {
		doc := annotationXML(b.w, b.h, objectXML("person", b.xmin, b.xmax, b.ymin, b.ymax))
		conv := newConverter(t, doc)
		lines, status := conv.Convert("/a.xml")
		require.Equal(t, ConvertOK, status)
		require.Len(t, lines, 1)

		_, c := parseLine(t, lines[0])
		cx, cy, bw, bh := c[0], c[1], c[2], c[3]
		for _, v := range c {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}

		// Denormalizing reconstructs the pixel box within rounding error.
		const tol = 1e-2
		assert.InDelta(t, b.xmin, (cx-bw/2)*float64(b.w), tol)
		assert.InDelta(t, b.xmax, (cx+bw/2)*float64(b.w), tol)
		assert.InDelta(t, b.ymin, (cy-bh/2)*float64(b.h), tol)
		assert.InDelta(t, b.ymax, (cy+bh/2)*float64(b.h), tol)
	}
}
