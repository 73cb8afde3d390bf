package imshow

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/imshow/utils"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNotFound is returned when the image file does not exist.
	ErrNotFound = errors.New("image file not found")
	// ErrNotImage is returned when the file content is not recognized as an image.
	ErrNotImage = errors.New("not an image file")
	// ErrDecode is returned when the image codec fails to decode the file.
	ErrDecode = errors.New("could not decode the image")
)

// SupportedExtensions lists the file extensions of the formats which can be decoded.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Load reads the image file and decodes it according to the decode mode.
// The returned error matches ErrNotFound, ErrNotImage or ErrDecode
// when tested with errors.Is.
func Load(path string, mode DecodeMode) (*Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.WithStack(fmt.Errorf("%w: %s", ErrNotFound, path))
		}
		return nil, errors.Wrap(err, "could not open the image file")
	}
	defer file.Close()

	// Only the first 512 bytes are used to sniff the content type.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, errors.Wrapf(err, "could not read %s", path)
	}
	if ctype := utils.SniffContentType(head[:n]); !strings.HasPrefix(ctype, "image/") {
		return nil, errors.WithStack(fmt.Errorf("%w: %s has content type %s", ErrNotImage, path, ctype))
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "could not rewind %s", path)
	}

	return Decode(file, mode)
}

// Read is the lenient version of Load: it never fails.
// A missing, unreadable or malformed file results in an empty buffer.
func Read(path string, mode DecodeMode) *Buffer {
	b, err := Load(path, mode)
	if err != nil {
		return &Buffer{}
	}
	return b
}

// Decode decodes an image from the reader according to the decode mode.
// Every mode except Unchanged applies the EXIF orientation of the image.
func Decode(r io.Reader, mode DecodeMode) (*Buffer, error) {
	if !mode.valid() {
		return nil, errors.Errorf("unsupported decode mode: %v", mode)
	}

	var (
		img image.Image
		err error
	)
	if mode.AutoOrient() {
		img, err = imaging.Decode(r, imaging.AutoOrientation(true))
	} else {
		img, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, errors.WithStack(fmt.Errorf("%w: %w", ErrDecode, err))
	}

	return FromImage(img, mode), nil
}

// FromImage converts an already decoded image to a buffer, following the
// channel layout and the reduction factor of the decode mode.
// The EXIF orientation can't be recovered from an image.Image, so it's not applied.
func FromImage(img image.Image, mode DecodeMode) *Buffer {
	if img == nil || img.Bounds().Empty() {
		return &Buffer{}
	}

	channels := mode.Channels()
	if channels == 0 {
		channels = nativeChannels(img)
	}

	if f := mode.Reduction(); f > 1 {
		img = reduce(img, f)
	}
	return bufferFromImage(img, channels)
}

// reduce downscales the image by the factor f. The new dimensions are rounded up,
// so that an image is never reduced to zero pixels.
func reduce(img image.Image, f int) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw, nh := (w+f-1)/f, (h+f-1)/f

	return resize.Resize(uint(nw), uint(nh), img, resize.Bilinear)
}

// isValidExtension checks for the supported extensions, ignoring the case.
func isValidExtension(ext string, extensions []string) bool {
	return utils.Contains(extensions, strings.ToLower(ext))
}
