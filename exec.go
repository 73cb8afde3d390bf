package imshow

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/esimov/imshow/utils"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// DefaultWindowName is the window name used when none is given.
const DefaultWindowName = "image"

// Ops holds the settings of a show session.
type Ops struct {
	// Src is an image file, a directory of images, an URL or the pipe name.
	Src, PipeName string
	WindowName    string
	Mode          DecodeMode
	Backend       string
	Flags         WindowFlags
	// Delay limits how long a key press is awaited. Zero or less waits forever.
	Delay time.Duration

	// Face enables the face markers, using the pigo cascade file found at Cascade.
	Face        bool
	Cascade     string
	FaceAngle   float64
	FaceMinSize int

	// Output receives the progress indicator and the status messages. Defaults to stderr.
	Output io.Writer

	stdin    *os.File
	spinner  *utils.Spinner
	detector *FaceDetector
}

// result holds a loaded image of a directory together with its path.
type result struct {
	path string
	buf  *Buffer
	err  error
	// elapsed is the loading time of the image.
	elapsed time.Duration
}

// Execute loads the source image, shows it in a window and waits for a key press
// until the delay elapses. A directory is shown as a slideshow: Esc or q stops it,
// any other key advances to the next image. Every window is destroyed on return.
//
// When the gio backend is used, Execute must run in a separate goroutine while
// the main goroutine is blocked in Main.
func (op *Ops) Execute() error {
	if op.Output == nil {
		op.Output = os.Stderr
	}
	if op.stdin == nil {
		op.stdin = os.Stdin
	}
	if op.WindowName == "" {
		op.WindowName = DefaultWindowName
	}

	defaultMsg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ IMSHOW", utils.StatusMessage),
		utils.DecorateText("⇢ loading image...", utils.DefaultMessage),
	)
	op.spinner = utils.NewSpinner(defaultMsg, time.Millisecond*80, false)
	op.spinner.SetWriter(op.Output)

	if op.Face {
		cascade, err := os.ReadFile(op.Cascade)
		if err != nil {
			return errors.Wrap(err, "could not read the cascade file")
		}
		op.detector, err = NewFaceDetector(cascade)
		if err != nil {
			return err
		}
		op.detector.Angle = op.FaceAngle
		if op.FaceMinSize > 0 {
			op.detector.MinSize = op.FaceMinSize
		}
	}

	defer func() {
		if err := DestroyAllWindows(); err != nil {
			fmt.Fprintln(op.Output, utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
	}()

	// Check if the source path is a local image or URL.
	if utils.IsValidUrl(op.Src) {
		op.spinner.SetMessage(fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ IMSHOW", utils.StatusMessage),
			utils.DecorateText("⇢ downloading image...", utils.DefaultMessage),
		))
		op.spinner.Start()
		src, err := utils.DownloadImage(op.Src)
		op.spinner.Stop()
		if err != nil {
			return errors.Wrap(err, "failed to load the source image")
		}
		defer os.Remove(src.Name())
		src.Close()

		return op.showFile(src.Name())
	}

	// Check if the source is a pipe name or a regular file.
	if op.Src == op.PipeName {
		if term.IsTerminal(int(op.stdin.Fd())) {
			return errors.New("`-` should be used with a pipe for stdin")
		}
		return op.showReader(op.stdin, "stdin")
	}

	fs, err := os.Stat(op.Src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errors.WithStack(fmt.Errorf("%w: %s", ErrNotFound, op.Src))
		}
		return errors.Wrap(err, "failed to load the source image")
	}
	if fs.IsDir() {
		return op.slideshow(op.Src)
	}
	return op.showFile(op.Src)
}

// showFile loads a single image and shows it.
func (op *Ops) showFile(path string) error {
	now := time.Now()

	op.spinner.Start()
	b, err := Load(path, op.Mode)
	op.spinner.Stop()
	if err != nil {
		return err
	}
	op.printStatus(filepath.Base(path), b, time.Since(now))

	_, err = op.show(b)
	return err
}

// showReader decodes the image from the reader and shows it.
func (op *Ops) showReader(r io.Reader, name string) error {
	now := time.Now()

	op.spinner.Start()
	b, err := Decode(r, op.Mode)
	op.spinner.Stop()
	if err != nil {
		return err
	}
	op.printStatus(name, b, time.Since(now))

	_, err = op.show(b)
	return err
}

// show marks the faces if requested, shows the buffer and waits for a key press.
func (op *Ops) show(b *Buffer) (Key, error) {
	if op.detector != nil {
		faces := op.detector.Detect(b)
		fmt.Fprintf(op.Output, "%s %s\n",
			utils.DecorateText("⇢ faces detected:", utils.DefaultMessage),
			utils.DecorateText(fmt.Sprintf("%d", len(faces)), utils.SuccessMessage),
		)
		b = MarkFaces(b, faces)
	}

	win, err := NewWindow(op.WindowName, WithBackend(op.Backend), WithFlags(op.Flags))
	if err != nil {
		return NoKey, err
	}
	if err := win.Show(b); err != nil {
		return NoKey, err
	}
	return win.WaitKey(op.Delay), nil
}

// slideshow shows the images of the directory one after the other.
// The next image is loaded while the current one is shown.
func (op *Ops) slideshow(dir string) error {
	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, dir, SupportedExtensions)
	images := op.preload(done, paths)

	var count int
	for res := range images {
		if res.err != nil {
			fmt.Fprintf(op.Output, "%s %s\n",
				utils.DecorateText(filepath.Base(res.path), utils.ErrorMessage),
				utils.DecorateText(res.err.Error(), utils.DefaultMessage),
			)
			continue
		}
		count++
		op.printStatus(filepath.Base(res.path), res.buf, res.elapsed)

		key, err := op.show(res.buf)
		if err != nil {
			if errors.Is(err, ErrWindowClosed) {
				return nil
			}
			return err
		}
		if key == KeyEscape || key == 'q' || key == 'Q' {
			return nil
		}
		// Without a delay NoKey means the window has been closed.
		if key == NoKey && op.Delay <= 0 {
			return nil
		}
	}

	if err := <-errc; err != nil {
		return errors.Wrapf(err, "could not read the %s directory", dir)
	}
	if count == 0 {
		return errors.WithStack(fmt.Errorf("%w: no supported image in %s", ErrNotFound, dir))
	}
	return nil
}

// preload reads the path names from the paths channel and loads the images in order.
// One image is kept ahead of the consumer. It doesn't write to the output,
// the consumer reports the results.
func (op *Ops) preload(done <-chan interface{}, paths <-chan string) <-chan result {
	res := make(chan result, 1)

	go func() {
		defer close(res)

		for src := range paths {
			now := time.Now()
			b, err := Load(src, op.Mode)

			select {
			case <-done:
				return
			case res <- result{path: src, buf: b, err: err, elapsed: time.Since(now)}:
			}
		}
	}()
	return res
}

// printStatus displays the name, the shape and the loading time of the image.
func (op *Ops) printStatus(name string, b *Buffer, d time.Duration) {
	h, w, c := b.Shape()
	fmt.Fprintf(op.Output, "%s %s %s\n",
		utils.DecorateText(name, utils.SuccessMessage),
		utils.DecorateText(utils.FormatSize(w, h, c), utils.DefaultMessage),
		utils.DecorateText(utils.FormatTime(d), utils.StatusMessage),
	)
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each supported image file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if !isValidExtension(filepath.Ext(f.Name()), srcExts) {
				return nil
			}

			select {
			case <-done:
				return filepath.SkipAll
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}
