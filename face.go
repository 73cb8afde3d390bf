package imshow

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/esimov/imshow/imop"
	"github.com/esimov/imshow/utils"
	pigo "github.com/esimov/pigo/core"
	"github.com/pkg/errors"
)

// ErrInvalidCascade is returned when the cascade file can't be unpacked.
var ErrInvalidCascade = errors.New("invalid cascade file")

// FaceDetector locates faces in an image buffer using a pigo cascade.
type FaceDetector struct {
	// MinSize and MaxSize limit the size of the detection window in pixels.
	// A MaxSize of zero means the longer side of the image.
	MinSize int
	MaxSize int
	// Angle is the in-plane rotation of the faces, in the range [0, 1] where 1 is 2π.
	Angle float64
	// IoU is the intersection over union threshold used to cluster the detections.
	IoU float64
	// QThreshold drops the detections having a lower score.
	QThreshold float32

	classifier *pigo.Pigo
}

// NewFaceDetector unpacks the cascade and returns a detector with the usual defaults.
func NewFaceDetector(cascade []byte) (fd *FaceDetector, err error) {
	// The header holds the tree depth and the number of trees after 8 reserved bytes.
	if len(cascade) < 16 {
		return nil, errors.WithStack(fmt.Errorf("%w: %d bytes", ErrInvalidCascade, len(cascade)))
	}

	// pigo indexes the packet without bound checks.
	defer func() {
		if r := recover(); r != nil {
			fd, err = nil, errors.WithStack(fmt.Errorf("%w: %v", ErrInvalidCascade, r))
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, errors.WithStack(fmt.Errorf("%w: %w", ErrInvalidCascade, err))
	}

	return &FaceDetector{
		MinSize:    20,
		IoU:        0.2,
		QThreshold: 5.0,
		classifier: classifier,
	}, nil
}

// Detect returns the bounding boxes of the faces found in the buffer.
// The boxes are clipped to the buffer bounds.
func (fd *FaceDetector) Detect(b *Buffer) []image.Rectangle {
	if b.Empty() {
		return nil
	}
	gray := b.Grayscale()

	maxSize := fd.MaxSize
	if maxSize <= 0 {
		maxSize = utils.Max(gray.Width, gray.Height)
	}

	cParams := pigo.CascadeParams{
		MinSize:     fd.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,

		ImageParams: pigo.ImageParams{
			Pixels: gray.Pix,
			Rows:   gray.Height,
			Cols:   gray.Width,
			Dim:    gray.Stride,
		},
	}

	// Run the classifier over the obtained leaf nodes and return the detection results.
	// The result contains quadruplets representing the row, column, scale and detection score.
	dets := fd.classifier.RunCascade(cParams, utils.Clamp(fd.Angle, 0, 1))

	// Calculate the intersection over union (IoU) of two clusters.
	dets = fd.classifier.ClusterDetections(dets, fd.IoU)

	var faces []image.Rectangle
	for _, det := range dets {
		if det.Q < fd.QThreshold {
			continue
		}
		r := image.Rect(
			det.Col-det.Scale/2,
			det.Row-det.Scale/2,
			det.Col+det.Scale/2,
			det.Row+det.Scale/2,
		).Intersect(gray.Bounds())

		if !r.Empty() {
			faces = append(faces, r)
		}
	}
	return faces
}

// markerColor is the outline color of the detected faces.
var markerColor = color.NRGBA{R: 0xff, G: 0x28, B: 0x28, A: 0xe6}

// markerWidth is the outline thickness in pixels.
const markerWidth = 2

// MarkFaces returns a copy of the buffer with the rectangles outlined.
// Gray buffers are converted to color, four channel buffers keep their alpha.
func MarkFaces(b *Buffer, rects []image.Rectangle) *Buffer {
	if b.Empty() {
		return &Buffer{}
	}

	channels := 3
	if b.Channels == 4 {
		channels = 4
	}
	if len(rects) == 0 {
		return bufferFromImage(b.NRGBA(), channels)
	}

	layer := image.NewNRGBA(b.Bounds())
	stroke := &image.Uniform{markerColor}
	for _, r := range rects {
		r = r.Intersect(b.Bounds())
		if r.Empty() {
			continue
		}
		edges := []image.Rectangle{
			image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+markerWidth),
			image.Rect(r.Min.X, r.Max.Y-markerWidth, r.Max.X, r.Max.Y),
			image.Rect(r.Min.X, r.Min.Y, r.Min.X+markerWidth, r.Max.Y),
			image.Rect(r.Max.X-markerWidth, r.Min.Y, r.Max.X, r.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(layer, e.Intersect(r), stroke, image.Point{}, draw.Src)
		}
	}

	op := imop.InitOp()
	op.Set(imop.SrcOver)
	marked := op.Draw(nil, layer, b.NRGBA())

	return bufferFromImage(marked.Img, channels)
}
