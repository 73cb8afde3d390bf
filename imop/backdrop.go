package imop

import (
	"image"
	"image/color"
)

// Checkerboard returns an opaque image filled with square tiles alternating between two colors.
// It is the usual backdrop for showing the transparent regions of an image.
func Checkerboard(rect image.Rectangle, size int, c1, c2 color.NRGBA) *image.NRGBA {
	if size <= 0 {
		size = 1
	}
	img := image.NewNRGBA(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c := c1
			if ((x-rect.Min.X)/size+(y-rect.Min.Y)/size)%2 == 1 {
				c = c2
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Flatten composes the image over the checkerboard backdrop, so that the result is fully opaque.
func Flatten(src *image.NRGBA, size int) *image.NRGBA {
	backdrop := Checkerboard(src.Bounds(), size,
		color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff},
		color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	)
	op := InitOp()
	op.Set(SrcOver)

	return op.Draw(nil, src, backdrop).Img
}
