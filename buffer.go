package imshow

import (
	"image"
	"image/color"
	"image/draw"
)

// Buffer is a decoded image held as packed, row-major 8-bit samples.
// The channels of a pixel are stored in R, G, B, A order; a one channel
// buffer holds luma samples.
type Buffer struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
	// Stride is the number of bytes between vertically adjacent pixels.
	Stride int
}

// NewBuffer allocates a zeroed buffer of the given size.
func NewBuffer(width, height, channels int) *Buffer {
	if width <= 0 || height <= 0 || channels <= 0 {
		return &Buffer{}
	}
	return &Buffer{
		Pix:      make([]uint8, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   width * channels,
	}
}

// Empty reports whether the buffer holds no pixels. A nil buffer is empty.
func (b *Buffer) Empty() bool {
	return b == nil || b.Width <= 0 || b.Height <= 0 || len(b.Pix) == 0
}

// Shape returns the buffer dimensions as (rows, columns, channels).
func (b *Buffer) Shape() (int, int, int) {
	if b.Empty() {
		return 0, 0, 0
	}
	return b.Height, b.Width, b.Channels
}

// Bounds returns the buffer domain with the min-point at (0, 0).
func (b *Buffer) Bounds() image.Rectangle {
	if b.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, b.Width, b.Height)
}

// PixOffset returns the index of the first sample of the pixel at (x, y).
func (b *Buffer) PixOffset(x, y int) int {
	return y*b.Stride + x*b.Channels
}

// At returns the samples of the pixel at (x, y), or nil outside of the bounds.
// The returned slice aliases the buffer.
func (b *Buffer) At(x, y int) []uint8 {
	if !(image.Point{X: x, Y: y}).In(b.Bounds()) {
		return nil
	}
	i := b.PixOffset(x, y)
	return b.Pix[i : i+b.Channels : i+b.Channels]
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	if b.Empty() {
		return &Buffer{}
	}
	dst := *b
	dst.Pix = make([]uint8, len(b.Pix))
	copy(dst.Pix, b.Pix)

	return &dst
}

// Image returns the buffer as an image.Image. One and four channel buffers
// share their memory with the returned image, three channel buffers are
// expanded to an opaque *image.NRGBA.
func (b *Buffer) Image() image.Image {
	if b.Empty() {
		return image.NewNRGBA(image.Rectangle{})
	}

	rect := b.Bounds()
	switch b.Channels {
	case 1:
		return &image.Gray{Pix: b.Pix, Stride: b.Stride, Rect: rect}
	case 4:
		return &image.NRGBA{Pix: b.Pix, Stride: b.Stride, Rect: rect}
	default:
		dst := image.NewNRGBA(rect)
		for y := 0; y < b.Height; y++ {
			si := y * b.Stride
			di := dst.PixOffset(0, y)
			for x := 0; x < b.Width; x++ {
				dst.Pix[di+0] = b.Pix[si+0]
				dst.Pix[di+1] = b.Pix[si+1]
				dst.Pix[di+2] = b.Pix[si+2]
				dst.Pix[di+3] = 0xff
				si += b.Channels
				di += 4
			}
		}
		return dst
	}
}

// NRGBA returns a four channel copy of the buffer as *image.NRGBA.
func (b *Buffer) NRGBA() *image.NRGBA {
	return imgToNRGBA(b.Image(), true)
}

// bufferFromImage packs an image into a buffer with the requested number of channels.
func bufferFromImage(img image.Image, channels int) *Buffer {
	if img == nil || img.Bounds().Empty() {
		return &Buffer{}
	}

	if channels == 1 {
		return &Buffer{
			Pix:      rgbToGrayscale(img),
			Width:    img.Bounds().Dx(),
			Height:   img.Bounds().Dy(),
			Channels: 1,
			Stride:   img.Bounds().Dx(),
		}
	}

	src := imgToNRGBA(img, false)
	if channels == 4 {
		// Sub-images share the parent's rows, the buffer needs tightly packed ones.
		if src.Stride != 4*src.Rect.Dx() || len(src.Pix) != src.Stride*src.Rect.Dy() {
			src = imgToNRGBA(src, true)
		}
		return &Buffer{
			Pix:      src.Pix,
			Width:    src.Rect.Dx(),
			Height:   src.Rect.Dy(),
			Channels: 4,
			Stride:   src.Stride,
		}
	}

	dst := NewBuffer(src.Rect.Dx(), src.Rect.Dy(), 3)
	for y := 0; y < dst.Height; y++ {
		si := src.PixOffset(0, y)
		di := dst.PixOffset(0, y)
		for x := 0; x < dst.Width; x++ {
			copy(dst.Pix[di:di+3], src.Pix[si:si+3])
			si += 4
			di += 3
		}
	}
	return dst
}

// nativeChannels returns the channel count the source image is stored with.
// Gray images have one channel. Images decoded with an explicit alpha channel,
// as well as any image which is not fully opaque, have four. Everything else has three.
func nativeChannels(img image.Image) int {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.NRGBAModel, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model:
		return 4
	}

	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		return 4
	}
	return 3
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
// When clone is false an *image.NRGBA source at the origin is returned as is.
func imgToNRGBA(img image.Image, clone bool) *image.NRGBA {
	srcBounds := img.Bounds()
	if !clone && srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	case *image.Gray:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := src.Pix[si]
				dst.Pix[di+0] = c
				dst.Pix[di+1] = c
				dst.Pix[di+2] = c
				dst.Pix[di+3] = 0xff
				si++
				di += 4
			}
		}
	default:
		// draw.Src un-premultiplies the colors while converting to the NRGBA model.
		draw.Draw(dst, dstBounds, img, srcBounds.Min, draw.Src)
	}

	return dst
}
