package imshow

import (
	"encoding/binary"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeCascade builds a cascade with a single tree of depth one. Every node compares
// a pixel with itself, so each window scores pred-threshold.
func makeCascade(pred, threshold float32) []byte {
	cascade := make([]byte, 8, 32)
	cascade = binary.LittleEndian.AppendUint32(cascade, 1) // tree depth
	cascade = binary.LittleEndian.AppendUint32(cascade, 1) // number of trees
	cascade = append(cascade, 0, 0, 0, 0)                  // node codes
	cascade = binary.LittleEndian.AppendUint32(cascade, math.Float32bits(0))
	cascade = binary.LittleEndian.AppendUint32(cascade, math.Float32bits(pred))
	cascade = binary.LittleEndian.AppendUint32(cascade, math.Float32bits(threshold))

	return cascade
}

func TestFace_InvalidCascade(t *testing.T) {
	_, err := NewFaceDetector(nil)
	assert.ErrorIs(t, err, ErrInvalidCascade)

	_, err = NewFaceDetector([]byte("not a cascade"))
	assert.ErrorIs(t, err, ErrInvalidCascade)

	// The header announces more trees than the packet holds.
	truncated := makeCascade(1, 0)[:16]
	binary.LittleEndian.PutUint32(truncated[12:], 5)
	_, err = NewFaceDetector(truncated)
	assert.ErrorIs(t, err, ErrInvalidCascade)
}

func TestFace_Detect(t *testing.T) {
	b := NewBuffer(64, 64, 3)

	fd, err := NewFaceDetector(makeCascade(10, 0))
	require.NoError(t, err)

	faces := fd.Detect(b)
	require.NotEmpty(t, faces)
	for _, r := range faces {
		assert.True(t, r.In(b.Bounds()), "%v is outside of the image", r)
		assert.False(t, r.Empty())
	}

	fd, err = NewFaceDetector(makeCascade(-1, 0))
	require.NoError(t, err)
	assert.Empty(t, fd.Detect(b))

	assert.Empty(t, fd.Detect(&Buffer{}))
}

func TestFace_QThreshold(t *testing.T) {
	fd, err := NewFaceDetector(makeCascade(10, 0))
	require.NoError(t, err)

	fd.QThreshold = math.MaxFloat32
	assert.Empty(t, fd.Detect(NewBuffer(64, 64, 1)))
}

func TestFace_MarkFaces(t *testing.T) {
	b := NewBuffer(20, 20, 1)
	for i := range b.Pix {
		b.Pix[i] = 0xff
	}

	marked := MarkFaces(b, []image.Rectangle{image.Rect(5, 5, 15, 15)})
	require.Equal(t, 3, marked.Channels)
	assert.Equal(t, b.Width, marked.Width)
	assert.Equal(t, b.Height, marked.Height)

	// The outline is reddish, the rest of the image is untouched.
	edge := marked.At(5, 10)
	assert.Equal(t, uint8(0xff), edge[0])
	assert.Less(t, edge[1], uint8(100))
	assert.Equal(t, []uint8{0xff, 0xff, 0xff}, marked.At(10, 10))
	assert.Equal(t, []uint8{0xff, 0xff, 0xff}, marked.At(0, 0))

	// The source buffer is not modified.
	assert.Equal(t, []uint8{0xff}, b.At(5, 10))
}

func TestFace_MarkFacesKeepsAlpha(t *testing.T) {
	b := NewBuffer(10, 10, 4)

	marked := MarkFaces(b, nil)
	require.Equal(t, 4, marked.Channels)
	marked.Pix[0] = 1
	assert.Equal(t, uint8(0), b.Pix[0])

	marked = MarkFaces(b, []image.Rectangle{image.Rect(-5, -5, 4, 4)})
	assert.Equal(t, uint8(0xe6), marked.At(3, 0)[3])
	assert.Equal(t, uint8(0), marked.At(8, 8)[3])

	assert.True(t, MarkFaces(&Buffer{}, nil).Empty())
}
