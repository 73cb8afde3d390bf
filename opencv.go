//go:build opencv

package imshow

import (
	"image"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

func init() {
	// Without it waitKey masks the key codes to their low byte, which turns the
	// arrow keys into letters. OpenCV reads the variable on the first waitKey call.
	if _, ok := os.LookupEnv("OPENCV_LEGACY_WAITKEY"); !ok {
		os.Setenv("OPENCV_LEGACY_WAITKEY", "1")
	}
	RegisterBackend("opencv", newCVWindow)
}

// CVWindow is an OpenCV highgui window. Contrary to the Gio backend it doesn't
// need a separate event loop: OpenCV processes the window events inside WaitKey.
//
// gocv always creates resizable windows, so WindowAutosize can't lock the size.
// Autosized windows are resized to every new image instead.
type CVWindow struct {
	name  string
	flags WindowFlags
	win   *gocv.Window

	mu     sync.Mutex
	mat    gocv.Mat
	hasMat bool
	closed bool
}

func newCVWindow(name string, opts WindowOptions) (Display, error) {
	w := &CVWindow{
		name:  name,
		flags: opts.Flags,
		win:   gocv.NewWindow(name),
	}

	if size := fitSize(opts.Size.X, opts.Size.Y); !size.Eq(image.Point{}) {
		w.win.ResizeWindow(size.X, size.Y)
	}

	return w, nil
}

// Name returns the window name.
func (w *CVWindow) Name() string {
	return w.name
}

// Show converts the buffer to a Mat and shows it in the window.
func (w *CVWindow) Show(b *Buffer) error {
	if b.Empty() {
		return errors.WithStack(ErrEmptyBuffer)
	}

	mat, err := bufferToMat(b)
	if err != nil {
		return errors.Wrap(err, "could not convert the image buffer")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		mat.Close()
		return errors.Wrapf(ErrWindowClosed, "%q", w.name)
	}

	if size, ok := cvWindowSize(w.flags, !w.hasMat, b.Width, b.Height); ok {
		w.win.ResizeWindow(size.X, size.Y)
	}
	if w.hasMat {
		w.mat.Close()
	}
	w.mat, w.hasMat = mat, true

	w.win.IMShow(w.mat)

	return nil
}

// WaitKey waits for a key press for the given delay. A delay of zero or less waits indefinitely.
func (w *CVWindow) WaitKey(delay time.Duration) Key {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return NoKey
	}
	return cvKeyCode(w.win.WaitKey(cvDelay(delay)))
}

// Close destroys the window and releases the shown Mat.
func (w *CVWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.hasMat {
		w.mat.Close()
		w.hasMat = false
	}
	return w.win.Close()
}

// bufferToMat converts the buffer to an 8-bit BGR or gray Mat.
func bufferToMat(b *Buffer) (gocv.Mat, error) {
	switch img := displayImage(b).(type) {
	case *image.Gray:
		return gocv.ImageGrayToMatGray(img)
	default:
		return gocv.ImageToMatRGB(img)
	}
}

// cvWindowSize returns the window size to apply when an image is shown.
// Normal windows take the size of the first image only.
func cvWindowSize(flags WindowFlags, first bool, width, height int) (image.Point, bool) {
	if !first && flags&WindowAutosize == 0 {
		return image.Point{}, false
	}
	size := fitSize(width, height)
	return size, !size.Eq(image.Point{})
}

// cvDelay converts the delay to milliseconds, where 0 means forever.
// Positive delays shorter than a millisecond are rounded up.
func cvDelay(delay time.Duration) int {
	if delay <= 0 {
		return 0
	}
	ms := int(delay / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return ms
}

// Key codes returned by the legacy waitKey for the special keys.
// GTK reports the X11 keysym in the low 16 bits and the modifiers above them,
// Win32 reports the virtual key code shifted left by 16 bits.
var (
	gtkKeys = map[int]Key{
		0xff08: KeyBackspace,
		0xff09: KeyTab,
		0xff0d: KeyEnter,
		0xff8d: KeyEnter,
		0xff1b: KeyEscape,
		0xffff: KeyDelete,
		0xff50: KeyHome,
		0xff51: KeyLeft,
		0xff52: KeyUp,
		0xff53: KeyRight,
		0xff54: KeyDown,
		0xff55: KeyPageUp,
		0xff56: KeyPageDown,
		0xff57: KeyEnd,
	}
	win32Keys = map[int]Key{
		0x210000: KeyPageUp,
		0x220000: KeyPageDown,
		0x230000: KeyEnd,
		0x240000: KeyHome,
		0x250000: KeyLeft,
		0x260000: KeyUp,
		0x270000: KeyRight,
		0x280000: KeyDown,
		0x2e0000: KeyDelete,
	}
)

// cvKeyCode converts the value returned by the OpenCV waitKey to a key code.
func cvKeyCode(code int) Key {
	if code < 0 {
		return NoKey
	}
	if k, ok := win32Keys[code]; ok {
		return k
	}

	low := code & 0xffff
	if k, ok := gtkKeys[low]; ok {
		return k
	}
	switch {
	case low == 10 || low == 13:
		return KeyEnter
	case low > 0 && low < 0xff00:
		return Key(low)
	default:
		return KeyUnknown
	}
}
