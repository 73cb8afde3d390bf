/*
Package imshow reads an image file into an in-memory pixel buffer, shows it in a
named window and waits for a key press, in the manner of the OpenCV imread, imshow
and waitKey functions.

The package provides a command line interface. To check the supported commands type:

	$ imshow --help

The windows are drawn by a display backend. The default one uses Gio, which needs
the main goroutine for its event loop, so the code showing the images has to run in
a separate goroutine:

	package main

	import (
		"log"
		"os"

		"github.com/esimov/imshow"
	)

	func main() {
		go func() {
			img := imshow.Read("avatar.jpg", imshow.Unchanged)
			if _, err := imshow.Show("image", img); err != nil {
				log.Fatal(err)
			}
			imshow.WaitKey(0)
			imshow.DestroyAllWindows()
			os.Exit(0)
		}()
		imshow.Main()
	}

Building with the opencv tag adds a backend based on GoCV.
*/
package imshow
