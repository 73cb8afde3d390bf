package imshow

import (
	"image"
	"image/color"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/pkg/errors"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// closeTimeout limits how long Close waits for the window to be destroyed.
const closeTimeout = 2 * time.Second

// keyQueueSize is the number of key presses kept until WaitKey consumes them.
const keyQueueSize = 16

var defaultBkgColor = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

func init() {
	RegisterBackend("gio", newGui)
}

// Main runs the Gio main loop. It must be called from the main goroutine of
// programs using the gio backend, after the code showing the windows has been
// started in a separate goroutine. On most platforms it never returns.
func Main() {
	app.Main()
}

// Gui is a Gio window showing an image buffer.
// The Gio event loop runs in its own goroutine; the other methods only post
// requests to it and wake it up with Invalidate.
type Gui struct {
	name  string
	flags WindowFlags
	win   *app.Window

	mu     sync.Mutex
	src    paint.ImageOp
	hasImg bool
	// size is the requested window size, applied on the next frame.
	size    image.Point
	resize  bool
	closing bool

	keys chan Key
	done chan struct{}
	err  error
}

// newGui creates the Gio window and starts its event loop.
func newGui(name string, opts WindowOptions) (Display, error) {
	g := &Gui{
		name:  name,
		flags: opts.Flags,
		win:   new(app.Window),
		keys:  make(chan Key, keyQueueSize),
		done:  make(chan struct{}),
	}

	options := []app.Option{app.Title(name)}
	if !opts.Size.Eq(image.Point{}) {
		options = append(options, g.sizeOptions(fitSize(opts.Size.X, opts.Size.Y))...)
	}
	g.win.Option(options...)

	go g.run()

	return g, nil
}

// Name returns the window title.
func (g *Gui) Name() string {
	return g.name
}

// Show replaces the image shown in the window. The first image sets the window size;
// windows created with WindowAutosize follow the size of every new image.
func (g *Gui) Show(b *Buffer) error {
	if b.Empty() {
		return errors.WithStack(ErrEmptyBuffer)
	}
	select {
	case <-g.done:
		return errors.Wrapf(ErrWindowClosed, "%q", g.name)
	default:
	}

	src := paint.NewImageOp(displayImage(b))

	g.mu.Lock()
	if !g.hasImg || g.flags&WindowAutosize != 0 {
		g.size = fitSize(b.Width, b.Height)
		g.resize = true
	}
	g.src = src
	g.hasImg = true
	g.mu.Unlock()

	g.win.Invalidate()

	return nil
}

// WaitKey blocks until a key is pressed in the window, the delay elapses or the window is closed.
func (g *Gui) WaitKey(delay time.Duration) Key {
	return waitKey(g.keys, g.done, delay)
}

// Close destroys the window and waits for the event loop to terminate.
func (g *Gui) Close() error {
	g.mu.Lock()
	g.closing = true
	g.mu.Unlock()

	g.win.Invalidate()

	select {
	case <-g.done:
		return g.err
	case <-time.After(closeTimeout):
		return errors.Errorf("timeout while closing the %q window", g.name)
	}
}

// run is the Gio event loop. It terminates on a DestroyEvent.
func (g *Gui) run() {
	defer close(g.done)

	var ops op.Ops
	for {
		switch e := g.win.Event().(type) {
		case app.DestroyEvent:
			g.err = e.Err
			return
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			g.readKeys(gtx)

			g.mu.Lock()
			src, hasImg := g.src, g.hasImg
			closing := g.closing
			var options []app.Option
			if g.resize {
				options = g.sizeOptions(g.size)
				g.resize = false
			}
			g.mu.Unlock()

			if closing {
				g.win.Perform(system.ActionClose)
			}
			if len(options) > 0 {
				g.win.Option(options...)
			}

			g.draw(gtx, src, hasImg)
			e.Frame(gtx.Ops)
		}
	}
}

// sizeOptions returns the window options for the image size.
// Autosized windows can't be resized by the user.
func (g *Gui) sizeOptions(size image.Point) []app.Option {
	w, h := unit.Dp(size.X), unit.Dp(size.Y)
	options := []app.Option{app.Size(w, h)}
	if g.flags&WindowAutosize != 0 {
		options = append(options, app.MinSize(w, h), app.MaxSize(w, h))
	}
	return options
}

// readKeys delivers the key presses received since the last frame.
// Presses are dropped when nobody consumes them and the queue is full.
func (g *Gui) readKeys(gtx C) {
	for {
		ev, ok := gtx.Event(key.Filter{Optional: key.ModShift})
		if !ok {
			break
		}
		e, ok := ev.(key.Event)
		if !ok || e.State != key.Press {
			continue
		}
		select {
		case g.keys <- keyCode(e):
		default:
		}
	}
}

// draw paints the image centered in the window over the background color.
// Normal windows scale the image to fit, autosized ones show it pixel by pixel.
func (g *Gui) draw(gtx C, src paint.ImageOp, hasImg bool) D {
	paint.Fill(gtx.Ops, defaultBkgColor)
	if !hasImg {
		return D{Size: gtx.Constraints.Max}
	}

	fit := widget.Contain
	if g.flags&WindowAutosize != 0 {
		fit = widget.Unscaled
	}

	return layout.Center.Layout(gtx, func(gtx C) D {
		return widget.Image{
			Src:      src,
			Fit:      fit,
			Position: layout.Center,
			Scale:    1 / gtx.Metric.PxPerDp,
		}.Layout(gtx)
	})
}

var specialKeys = map[key.Name]Key{
	key.NameEscape:         KeyEscape,
	key.NameReturn:         KeyEnter,
	key.NameEnter:          KeyEnter,
	key.NameTab:            KeyTab,
	key.NameSpace:          KeySpace,
	key.NameDeleteBackward: KeyBackspace,
	key.NameDeleteForward:  KeyDelete,
	key.NameLeftArrow:      KeyLeft,
	key.NameRightArrow:     KeyRight,
	key.NameUpArrow:        KeyUp,
	key.NameDownArrow:      KeyDown,
	key.NameHome:           KeyHome,
	key.NameEnd:            KeyEnd,
	key.NamePageUp:         KeyPageUp,
	key.NamePageDown:       KeyPageDown,
}

// keyCode converts a Gio key event to a key code.
// Gio reports letters in upper case, they are lowered unless Shift is held.
func keyCode(e key.Event) Key {
	if k, ok := specialKeys[e.Name]; ok {
		return k
	}

	r, size := utf8.DecodeRuneInString(string(e.Name))
	if r == utf8.RuneError || size != len(e.Name) {
		return KeyUnknown
	}
	if !e.Modifiers.Contain(key.ModShift) {
		r = unicode.ToLower(r)
	}
	return Key(r)
}

// waitKey returns the first key received on the channel. It returns NoKey
// when the delay elapses or the window gets closed without a pending key.
func waitKey(keys <-chan Key, done <-chan struct{}, delay time.Duration) Key {
	var timeout <-chan time.Time
	if delay > 0 {
		t := time.NewTimer(delay)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case k := <-keys:
		return k
	case <-done:
		select {
		case k := <-keys:
			return k
		default:
			return NoKey
		}
	case <-timeout:
		return NoKey
	}
}
