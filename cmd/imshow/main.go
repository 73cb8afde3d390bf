package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/esimov/imshow"
	"github.com/esimov/imshow/utils"
)

const HelpBanner = `
┬┌┬┐┌─┐┬ ┬┌─┐┬ ┬
││││└─┐├─┤│ ││││
┴┴ ┴└─┘┴ ┴└─┘└┴┘

Image viewer: read an image, show it in a window and wait for a key press.
    Version: %s

`

// pipeName is the file name that indicates stdin is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source     = flag.String("in", pipeName, "Source image, directory or URL")
	windowName = flag.String("window", imshow.DefaultWindowName, "Window name")
	backend    = flag.String("backend", imshow.DefaultBackend, "Display backend")
	autosize   = flag.Bool("autosize", false, "Fix the window size to the image size")
	delay      = flag.Duration("delay", 0, "Key press timeout, 0 waits forever")
	faceDetect = flag.Bool("face", false, "Mark the detected faces")
	cascade    = flag.String("cc", "", "Cascade classifier")
	faceAngle  = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	minSize    = flag.Int("minsize", 20, "Minimum face size")
	version    = flag.Bool("version", false, "Print the version")

	mode = imshow.Unchanged
)

func main() {
	log.SetFlags(0)

	flag.Var(&mode, "mode", "Decode mode: "+strings.Join(imshow.ModeNames(), ", "))
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [image]\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Println(Version)
		return
	}

	src := *source
	if flag.NArg() > 0 {
		src = flag.Arg(0)
	}

	if *faceDetect && len(*cascade) == 0 {
		log.Fatalf(utils.DecorateText("Please specify a face classifier in case you are using the -face flag!\n", utils.ErrorMessage))
	}
	if !utils.Contains(imshow.Backends(), *backend) {
		log.Fatalf("%s %s",
			utils.DecorateText(fmt.Sprintf("Unsupported backend %q.", *backend), utils.ErrorMessage),
			utils.DecorateText("Available backends: "+strings.Join(imshow.Backends(), ", "), utils.DefaultMessage),
		)
	}

	flags := imshow.WindowNormal
	if *autosize {
		flags = imshow.WindowAutosize
	}

	ops := &imshow.Ops{
		Src:         src,
		PipeName:    pipeName,
		WindowName:  *windowName,
		Mode:        mode,
		Backend:     *backend,
		Flags:       flags,
		Delay:       *delay,
		Face:        *faceDetect,
		Cascade:     *cascade,
		FaceAngle:   *faceAngle,
		FaceMinSize: *minSize,
	}

	// Capture CTRL-C signal and close the open windows.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		imshow.DestroyAllWindows()
		os.Exit(1)
	}()

	run := func() {
		now := time.Now()
		if err := ops.Execute(); err != nil {
			log.Fatalf(
				utils.DecorateText("\nError showing the image: %s", utils.ErrorMessage),
				utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
			)
		}
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
		os.Exit(0)
	}

	// OpenCV handles the window events inside WaitKey, it only needs a locked thread.
	// Gio needs the main goroutine for its own event loop.
	if *backend != imshow.DefaultBackend {
		runtime.LockOSThread()
		run()
		return
	}
	go run()
	imshow.Main()
}
