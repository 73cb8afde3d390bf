package imshow

import (
	"image"
)

// Rec.601 luma weights scaled by 1<<14.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
)

// luma returns the gray value of an RGB triplet, rounded to the nearest integer.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*lumaR + uint32(g)*lumaG + uint32(b)*lumaB + 1<<(lumaShift-1)) >> lumaShift)
}

// rgbToGrayscale converts an image to grayscale mode and
// returns the pixel values as a one dimensional array.
// The alpha channel is ignored.
func rgbToGrayscale(img image.Image) []uint8 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	gray := make([]uint8, width*height)

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			si := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(gray[y*width:(y+1)*width], src.Pix[si:si+width])
		}
	case *image.Gray16:
		for y := 0; y < height; y++ {
			si := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			for x := 0; x < width; x++ {
				gray[y*width+x] = src.Pix[si+x*2]
			}
		}
	default:
		nrgba := imgToNRGBA(img, false)
		for y := 0; y < height; y++ {
			si := nrgba.PixOffset(0, y)
			for x := 0; x < width; x++ {
				gray[y*width+x] = luma(nrgba.Pix[si], nrgba.Pix[si+1], nrgba.Pix[si+2])
				si += 4
			}
		}
	}

	return gray
}

// Grayscale returns a single channel copy of the buffer.
// A buffer which is already single channel is cloned.
func (b *Buffer) Grayscale() *Buffer {
	if b.Empty() {
		return &Buffer{}
	}
	if b.Channels == 1 {
		return b.Clone()
	}

	dst := NewBuffer(b.Width, b.Height, 1)
	for y := 0; y < b.Height; y++ {
		si := b.PixOffset(0, y)
		di := dst.PixOffset(0, y)
		for x := 0; x < b.Width; x++ {
			dst.Pix[di] = luma(b.Pix[si], b.Pix[si+1], b.Pix[si+2])
			si += b.Channels
			di++
		}
	}
	return dst
}
