// Package voc - Pascal VOC annotation decoding.
package voc

import (
	"encoding/xml"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Annotation is one image's annotation document.
type Annotation struct {
	XMLName xml.Name `xml:"annotation"`
	Size    Size     `xml:"size"`
	Objects []Object `xml:"object"`
}

// Size holds the image dimensions in pixels.
type Size struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
}

// Object is one annotated object within the image.
type Object struct {
	Name   string `xml:"name"`
	BndBox Box    `xml:"bndbox"`
}

// Box is an axis-aligned bounding box in pixel space.
// Coordinates are decoded as floats; files in the wild carry decimals.
type Box struct {
	XMin float64 `xml:"xmin"`
	XMax float64 `xml:"xmax"`
	YMin float64 `xml:"ymin"`
	YMax float64 `xml:"ymax"`
}

// Decode parses one annotation document.
func Decode(r io.Reader) (*Annotation, error) {
	var ann Annotation
	if err := xml.NewDecoder(r).Decode(&ann); err != nil {
		return nil, errors.Wrap(err, "decode annotation")
	}
	return &ann, nil
}

// DecodeFile parses the annotation file at path.
func DecodeFile(fs afero.Fs, path string) (*Annotation, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open annotation %s", path)
	}
	defer f.Close()
	return Decode(f)
}
