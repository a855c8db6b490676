package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemID(t *testing.T) {
	cases := map[string]string{
		"img01.jpg.xml":  "img01",
		"img02.xml":      "img02",
		"img03.jpg":      "img03",
		"img04.JPG":      "img04",
		"img05.JPEG.XML": "img05",
		"img06.png.xml":  "img06",
		"plain":          "plain",
		"dotted.name.xml": "dotted.name",
	}
	for in, want := range cases {
		assert.Equal(t, want, ItemID(in), "ItemID(%q)", in)
	}
}
