package chart

import (
	"github.com/golang/freetype/truetype"
	"github.com/llgcode/draw2d"
	"golang.org/x/image/font/gofont/goregular"
)

// chartFont is the embedded face all chart text is drawn with. draw2d
// resolves fonts from a registry (falling back to font files on disk), so
// the face has to be registered before any FillStringAt call.
var chartFont = draw2d.FontData{Name: "goregular", Family: draw2d.FontFamilySans}

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	draw2d.RegisterFont(chartFont, f)
}
