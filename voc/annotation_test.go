package voc

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<annotation>
	<size><width>640</width><height>480</height></size>
	<object>
		<name>person</name>
		<bndbox><xmin>10</xmin><xmax>50</xmax><ymin>10</ymin><ymax>90</ymax></bndbox>
	</object>
	<object>
		<name>dog</name>
		<bndbox><xmin>1.5</xmin><xmax>20.25</xmax><ymin>2</ymin><ymax>30</ymax></bndbox>
	</object>
</annotation>`

func TestDecode(t *testing.T) {
	ann, err := Decode(strings.NewReader(sampleXML))
	require.NoError(t, err)

	assert.Equal(t, 640, ann.Size.Width)
	assert.Equal(t, 480, ann.Size.Height)
	require.Len(t, ann.Objects, 2)
	assert.Equal(t, "person", ann.Objects[0].Name)
	assert.Equal(t, Box{XMin: 10, XMax: 50, YMin: 10, YMax: 90}, ann.Objects[0].BndBox)
	// Decimal coordinates survive.
	assert.Equal(t, 20.25, ann.Objects[1].BndBox.XMax)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"truncated":        `<annotation><size><width>10`,
		"non-numeric size": `<annotation><size><width>ten</width><height>5</height></size></annotation>`,
		"non-numeric box": `<annotation><size><width>10</width><height>10</height></size>` +
			`<object><name>person</name><bndbox><xmin>x</xmin></bndbox></object></annotation>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestDecodeMissingSizeYieldsZeroDims(t *testing.T) {
	ann, err := Decode(strings.NewReader(`<annotation></annotation>`))
	require.NoError(t, err)
	assert.Zero(t, ann.Size.Width)
	assert.Zero(t, ann.Size.Height)
}

func TestDecodeFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.xml", []byte(sampleXML), 0o644))

	ann, err := DecodeFile(fs, "/a.xml")
	require.NoError(t, err)
	assert.Len(t, ann.Objects, 2)

	_, err = DecodeFile(fs, "/missing.xml")
	assert.Error(t, err)
}
