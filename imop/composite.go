// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// Porter and Duff presented in their paper 12 different composition operation,
// but the image/draw core package implements only the source-over-destination and source.
// This package is aimed to overcome the missing composite operations.
//
// It is used to flatten translucent images over a backdrop before showing them,
// and to lay the face markers over the displayed image.
package imop

import (
	"image"

	"github.com/esimov/imshow/utils"
)

const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Bitmap holds the result of a composition.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite holds the currently active composition operation.
type Composite struct {
	current string
	ops     []string
}

// NewBitmap initializes a new Bitmap.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp initializes a new composition operation. SrcOver is the default one.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear,
			Copy,
			Dst,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set changes the current composition operation. Unsupported operations are ignored.
func (op *Composite) Set(cop string) {
	if utils.Contains(op.ops, cop) {
		op.current = cop
	}
}

// Get returns the currently active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw applies the currently active composition operation to the source and
// the destination (backdrop) image and writes the result into the bitmap.
// The two images are expected to have the same bounds.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA) *Bitmap {
	bounds := src.Bounds().Intersect(dst.Bounds())
	if bitmap == nil {
		bitmap = NewBitmap(bounds)
	}

	var rn, gn, bn, an float64

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			si := src.PixOffset(x, y)
			di := dst.PixOffset(x, y)

			rsn := float64(src.Pix[si+0]) / 255
			gsn := float64(src.Pix[si+1]) / 255
			bsn := float64(src.Pix[si+2]) / 255
			asn := float64(src.Pix[si+3]) / 255

			rbn := float64(dst.Pix[di+0]) / 255
			gbn := float64(dst.Pix[di+1]) / 255
			bbn := float64(dst.Pix[di+2]) / 255
			abn := float64(dst.Pix[di+3]) / 255

			// applying the alpha composition formula
			switch op.current {
			case Clear:
				rn, gn, bn, an = 0, 0, 0, 0
			case Copy:
				rn, gn, bn, an = asn*rsn, asn*gsn, asn*bsn, asn
			case Dst:
				rn, gn, bn, an = abn*rbn, abn*gbn, abn*bbn, abn
			case SrcOver:
				rn = asn*rsn + abn*rbn*(1-asn)
				gn = asn*gsn + abn*gbn*(1-asn)
				bn = asn*bsn + abn*bbn*(1-asn)
				an = asn + abn*(1-asn)
			case DstOver:
				rn = asn*rsn*(1-abn) + abn*rbn
				gn = asn*gsn*(1-abn) + abn*gbn
				bn = asn*bsn*(1-abn) + abn*bbn
				an = asn*(1-abn) + abn
			case SrcIn:
				rn = asn * rsn * abn
				gn = asn * gsn * abn
				bn = asn * bsn * abn
				an = asn * abn
			case DstIn:
				rn = abn * rbn * asn
				gn = abn * gbn * asn
				bn = abn * bbn * asn
				an = abn * asn
			case SrcOut:
				rn = asn * rsn * (1 - abn)
				gn = asn * gsn * (1 - abn)
				bn = asn * bsn * (1 - abn)
				an = asn * (1 - abn)
			case DstOut:
				rn = abn * rbn * (1 - asn)
				gn = abn * gbn * (1 - asn)
				bn = abn * bbn * (1 - asn)
				an = abn * (1 - asn)
			case SrcAtop:
				rn = asn*rsn*abn + (1-asn)*abn*rbn
				gn = asn*gsn*abn + (1-asn)*abn*gbn
				bn = asn*bsn*abn + (1-asn)*abn*bbn
				an = asn*abn + abn*(1-asn)
			case DstAtop:
				rn = asn*rsn*(1-abn) + abn*rbn*asn
				gn = asn*gsn*(1-abn) + abn*gbn*asn
				bn = asn*bsn*(1-abn) + abn*bbn*asn
				an = asn*(1-abn) + abn*asn
			case Xor:
				rn = asn*rsn*(1-abn) + abn*rbn*(1-asn)
				gn = asn*gsn*(1-abn) + abn*gbn*(1-asn)
				bn = asn*bsn*(1-abn) + abn*bbn*(1-asn)
				an = asn*(1-abn) + abn*(1-asn)
			}

			// The formulas above give premultiplied colors, the bitmap is non-premultiplied.
			if an > 0 {
				rn, gn, bn = rn/an, gn/an, bn/an
			}

			oi := bitmap.Img.PixOffset(x, y)
			bitmap.Img.Pix[oi+0] = toByte(rn)
			bitmap.Img.Pix[oi+1] = toByte(gn)
			bitmap.Img.Pix[oi+2] = toByte(bn)
			bitmap.Img.Pix[oi+3] = toByte(an)
		}
	}
	return bitmap
}

// toByte converts a normalized value to an 8-bit sample.
func toByte(v float64) uint8 {
	return uint8(utils.Clamp(v*255+0.5, 0, 255))
}
