package imshow

import (
	"image"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/esimov/imshow/imop"
	"github.com/pkg/errors"
)

// The maximum window size. Bigger images are scaled down to fit, keeping the aspect ratio.
const (
	MaxScreenX = 1366
	MaxScreenY = 768
)

// DefaultBackend is the name of the backend used when none is requested.
const DefaultBackend = "gio"

var (
	// ErrEmptyBuffer is returned when an empty buffer is sent to a window.
	ErrEmptyBuffer = errors.New("the image buffer is empty")
	// ErrBackendUnavailable is returned for a backend which is unknown or not compiled in.
	ErrBackendUnavailable = errors.New("display backend not available")
	// ErrWindowClosed is returned when showing an image in a destroyed window.
	ErrWindowClosed = errors.New("the window has been closed")
)

// Key is the code of a pressed key. Printable keys are reported with their
// Unicode code point, the special keys with the values listed below.
type Key int

// NoKey is returned by WaitKey when no key has been pressed until the delay elapsed
// or the window got closed.
const NoKey Key = -1

const (
	KeyBackspace Key = 8
	KeyTab       Key = 9
	KeyEnter     Key = 13
	KeyEscape    Key = 27
	KeySpace     Key = 32
	KeyDelete    Key = 127
)

// Keys without a Unicode representation.
const (
	KeyLeft Key = 0x10000 + iota
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUnknown
)

// WindowFlags controls the behavior of a window.
type WindowFlags int

const (
	// WindowNormal creates a window which can be resized by the user.
	WindowNormal WindowFlags = 0
	// WindowAutosize creates a window fixed to the size of the shown image.
	WindowAutosize WindowFlags = 1
)

// Display is a named surface showing an image buffer.
type Display interface {
	// Name returns the window name.
	Name() string
	// Show renders the buffer in the window, replacing the previous one.
	Show(b *Buffer) error
	// WaitKey blocks until a key is pressed or the delay elapses.
	// A delay of zero or less waits indefinitely.
	WaitKey(delay time.Duration) Key
	// Close destroys the window and releases its resources.
	Close() error
}

// WindowOptions holds the settings a backend needs to create a window.
type WindowOptions struct {
	Backend string
	Flags   WindowFlags
	// Size is the initial size of the window. When empty the first shown image sets it.
	Size image.Point
}

// WindowOption customizes a new window.
type WindowOption func(*WindowOptions)

// WithBackend selects the display backend.
func WithBackend(name string) WindowOption {
	return func(o *WindowOptions) {
		if name != "" {
			o.Backend = name
		}
	}
}

// WithFlags sets the window flags.
func WithFlags(flags WindowFlags) WindowOption {
	return func(o *WindowOptions) {
		o.Flags = flags
	}
}

// WithSize sets the initial window size.
func WithSize(width, height int) WindowOption {
	return func(o *WindowOptions) {
		o.Size = image.Pt(width, height)
	}
}

// BackendFactory creates a window for a display backend.
type BackendFactory func(name string, opts WindowOptions) (Display, error)

var (
	mu       sync.Mutex
	backends = make(map[string]BackendFactory)
	windows  = make(map[string]Display)
	// order keeps the names of the open windows in creation order.
	order []string
)

// RegisterBackend makes a display backend available by name.
// Registering a name twice replaces the previous factory.
func RegisterBackend(name string, factory BackendFactory) {
	mu.Lock()
	defer mu.Unlock()

	backends[name] = factory
}

// Backends returns the names of the registered backends in sorted order.
func Backends() []string {
	mu.Lock()
	defer mu.Unlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// NewWindow creates a named window. If a window with the same name is
// already open, it is returned instead of creating a new one.
func NewWindow(name string, opts ...WindowOption) (Display, error) {
	o := WindowOptions{Backend: DefaultBackend, Flags: WindowNormal}
	for _, opt := range opts {
		opt(&o)
	}

	mu.Lock()
	defer mu.Unlock()

	if w, ok := windows[name]; ok {
		return w, nil
	}

	factory, ok := backends[o.Backend]
	if !ok {
		return nil, errors.Wrapf(ErrBackendUnavailable, "%q", o.Backend)
	}

	w, err := factory(name, o)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create the %q window", name)
	}
	windows[name] = &trackedWindow{Display: w}
	order = append(order, name)

	return windows[name], nil
}

// Show shows the buffer in the named window, creating the window if it doesn't exist.
func Show(name string, b *Buffer, opts ...WindowOption) (Display, error) {
	w, err := NewWindow(name, opts...)
	if err != nil {
		return nil, err
	}
	return w, w.Show(b)
}

// WaitKey waits for a key press in the most recently created window which is still open.
// A delay of zero or less waits indefinitely. It returns NoKey when no window is open.
func WaitKey(delay time.Duration) Key {
	mu.Lock()
	var last Display
	if n := len(order); n > 0 {
		last = windows[order[n-1]]
	}
	mu.Unlock()

	if last == nil {
		return NoKey
	}
	return last.WaitKey(delay)
}

// DestroyWindow closes the named window. Unknown names are ignored.
func DestroyWindow(name string) error {
	mu.Lock()
	w, ok := windows[name]
	mu.Unlock()

	if !ok {
		return nil
	}
	return w.Close()
}

// DestroyAllWindows closes every open window and returns the first error encountered.
func DestroyAllWindows() error {
	mu.Lock()
	open := make([]Display, 0, len(windows))
	for _, w := range windows {
		open = append(open, w)
	}
	mu.Unlock()

	var firstErr error
	for _, w := range open {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// trackedWindow removes the window from the registry once it's closed.
type trackedWindow struct {
	Display
	once sync.Once
	err  error
}

func (w *trackedWindow) Close() error {
	w.once.Do(func() {
		w.err = w.Display.Close()

		mu.Lock()
		if windows[w.Name()] == Display(w) {
			delete(windows, w.Name())
			for i, name := range order {
				if name == w.Name() {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
		}
		mu.Unlock()
	})
	return w.err
}

// fitSize returns the window size for an image, scaling it down to the maximum
// screen size while keeping the aspect ratio.
func fitSize(width, height int) image.Point {
	if width <= 0 || height <= 0 {
		return image.Point{}
	}
	if width <= MaxScreenX && height <= MaxScreenY {
		return image.Pt(width, height)
	}

	ratio := math.Min(float64(MaxScreenX)/float64(width), float64(MaxScreenY)/float64(height))
	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))

	return image.Pt(max(w, 1), max(h, 1))
}

// displayImage converts the buffer to the image shown by the backends.
// Translucent buffers are flattened over a checkerboard.
func displayImage(b *Buffer) image.Image {
	if b.Channels == 4 {
		return imop.Flatten(b.NRGBA(), checkerSize)
	}
	return b.Image()
}

// checkerSize is the tile size of the backdrop shown behind transparent pixels.
const checkerSize = 8
