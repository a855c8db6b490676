package detect

import (
	"image"

	"github.com/nfnt/resize"
)

// letterboxPad is the gray used for padding, as a [0,1] channel value.
const letterboxPad = float32(114) / 255

// letterbox records how an image was fitted into the model input so
// detections can be mapped back to original pixels.
type letterbox struct {
	scale      float32
	padX, padY int
	srcW, srcH int
}

// letterboxInto scales img to fit a size x size square preserving aspect
// ratio, centers it on a gray canvas, and writes the result into out as
// CHW float32 RGB in [0,1]. out must hold 3*size*size values.
func letterboxInto(img image.Image, size int, out []float32) letterbox {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	scale := float32(size) / float32(srcW)
	if s := float32(size) / float32(srcH); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	newW := int(float32(srcW) * scale)
	newH := int(float32(srcH) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	scaled := resize.Resize(uint(newW), uint(newH), img, resize.Bilinear)
	padX := (size - newW) / 2
	padY := (size - newH) / 2

	plane := size * size
	for i := range out[:3*plane] {
		out[i] = letterboxPad
	}
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			idx := (y+padY)*size + (x + padX)
			out[idx] = float32(r>>8) / 255
			out[plane+idx] = float32(g>>8) / 255
			out[2*plane+idx] = float32(b>>8) / 255
		}
	}

	return letterbox{scale: scale, padX: padX, padY: padY, srcW: srcW, srcH: srcH}
}
