//go:build opencv

package imshow

import (
	"image"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestOpenCV_Delay(t *testing.T) {
	assert.Equal(t, 0, cvDelay(0))
	assert.Equal(t, 0, cvDelay(-time.Second))
	assert.Equal(t, 1, cvDelay(time.Microsecond))
	assert.Equal(t, 250, cvDelay(250*time.Millisecond))
}

func TestOpenCV_KeyCode(t *testing.T) {
	assert.Equal(t, NoKey, cvKeyCode(-1))
	assert.Equal(t, KeyEnter, cvKeyCode(10))
	assert.Equal(t, KeyEnter, cvKeyCode(13))
	assert.Equal(t, KeyEscape, cvKeyCode(27))
	assert.Equal(t, Key('q'), cvKeyCode('q'))

	// GTK keysyms, with and without the NumLock modifier bit.
	assert.Equal(t, KeyLeft, cvKeyCode(0xff51))
	assert.Equal(t, KeyLeft, cvKeyCode(0x10ff51))
	assert.Equal(t, KeyUp, cvKeyCode(0xff52))
	assert.Equal(t, KeyRight, cvKeyCode(0xff53))
	assert.Equal(t, KeyDown, cvKeyCode(0xff54))
	assert.Equal(t, KeyHome, cvKeyCode(0xff50))
	assert.Equal(t, KeyEnd, cvKeyCode(0xff57))
	assert.Equal(t, KeyPageUp, cvKeyCode(0xff55))
	assert.Equal(t, KeyPageDown, cvKeyCode(0xff56))
	assert.Equal(t, KeyEscape, cvKeyCode(0xff1b))
	assert.Equal(t, Key('q'), cvKeyCode(0x100071))
	assert.Equal(t, KeyUnknown, cvKeyCode(0xffbe)) // F1

	// Win32 virtual key codes.
	assert.Equal(t, KeyLeft, cvKeyCode(0x250000))
	assert.Equal(t, KeyUp, cvKeyCode(0x260000))
	assert.Equal(t, KeyRight, cvKeyCode(0x270000))
	assert.Equal(t, KeyDown, cvKeyCode(0x280000))
	assert.Equal(t, KeyPageUp, cvKeyCode(0x210000))
	assert.Equal(t, KeyUnknown, cvKeyCode(0x700000))

	// The arrows are never taken for letters.
	assert.NotEqual(t, Key('Q'), cvKeyCode(0xff51))
}

func TestOpenCV_LegacyWaitKey(t *testing.T) {
	assert.NotEmpty(t, os.Getenv("OPENCV_LEGACY_WAITKEY"))
}

func TestOpenCV_WindowSize(t *testing.T) {
	size, ok := cvWindowSize(WindowNormal, true, 2048, 1536)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(1024, 768), size)

	_, ok = cvWindowSize(WindowNormal, false, 640, 480)
	assert.False(t, ok)

	// Autosized windows follow every new image.
	size, ok = cvWindowSize(WindowAutosize, false, 640, 480)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(640, 480), size)
}

func TestOpenCV_BufferToMat(t *testing.T) {
	rgb := NewBuffer(imgWidth, imgHeight, 3)
	copy(rgb.At(0, 0), []uint8{10, 20, 30})

	mat, err := bufferToMat(rgb)
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, imgHeight, mat.Rows())
	assert.Equal(t, imgWidth, mat.Cols())
	assert.Equal(t, 3, mat.Channels())
	assert.Equal(t, gocv.MatTypeCV8UC3, mat.Type())

	// OpenCV keeps the channels in BGR order.
	assert.Equal(t, uint8(30), mat.GetUCharAt(0, 0))
	assert.Equal(t, uint8(10), mat.GetUCharAt(0, 2))

	gray, err := bufferToMat(NewBuffer(imgWidth, imgHeight, 1))
	require.NoError(t, err)
	defer gray.Close()

	assert.Equal(t, 1, gray.Channels())
}
