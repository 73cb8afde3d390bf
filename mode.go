package imshow

import (
	"fmt"
	"strings"
)

// DecodeMode selects how the stored image samples are mapped to the in-memory buffer.
type DecodeMode int

const (
	// Unchanged keeps the native channel layout of the source (alpha included)
	// and ignores the EXIF orientation.
	Unchanged DecodeMode = iota
	// Grayscale converts the image to a single luma channel.
	Grayscale
	// Color converts the image to three channels, dropping the alpha.
	Color
	ReducedGrayscale2
	ReducedColor2
	ReducedGrayscale4
	ReducedColor4
	ReducedGrayscale8
	ReducedColor8
)

var modeNames = map[DecodeMode]string{
	Unchanged:         "unchanged",
	Grayscale:         "grayscale",
	Color:             "color",
	ReducedGrayscale2: "reduced-grayscale-2",
	ReducedColor2:     "reduced-color-2",
	ReducedGrayscale4: "reduced-grayscale-4",
	ReducedColor4:     "reduced-color-4",
	ReducedGrayscale8: "reduced-grayscale-8",
	ReducedColor8:     "reduced-color-8",
}

// String returns the command line name of the decode mode.
func (m DecodeMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("DecodeMode(%d)", int(m))
}

// ModeNames returns the names of the decode modes in declaration order.
func ModeNames() []string {
	names := make([]string, 0, len(modeNames))
	for m := Unchanged; m <= ReducedColor8; m++ {
		names = append(names, modeNames[m])
	}
	return names
}

// Set implements the flag.Value interface.
func (m *DecodeMode) Set(s string) error {
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseMode returns the decode mode matching the name.
// The match is case insensitive and underscores may be used in place of dashes.
func ParseMode(s string) (DecodeMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "_", "-")
	switch name {
	case "gray":
		name = "grayscale"
	case "colour":
		name = "color"
	}

	for mode, n := range modeNames {
		if n == name {
			return mode, nil
		}
	}
	return Unchanged, fmt.Errorf("unsupported decode mode: %q", s)
}

// Channels returns the number of channels produced by the mode.
// Unchanged returns 0 since it depends on the source image.
func (m DecodeMode) Channels() int {
	switch m {
	case Unchanged:
		return 0
	case Grayscale, ReducedGrayscale2, ReducedGrayscale4, ReducedGrayscale8:
		return 1
	default:
		return 3
	}
}

// Reduction returns the factor by which both image sides are divided.
func (m DecodeMode) Reduction() int {
	switch m {
	case ReducedGrayscale2, ReducedColor2:
		return 2
	case ReducedGrayscale4, ReducedColor4:
		return 4
	case ReducedGrayscale8, ReducedColor8:
		return 8
	default:
		return 1
	}
}

// AutoOrient reports whether the EXIF orientation tag is applied while decoding.
func (m DecodeMode) AutoOrient() bool {
	return m != Unchanged
}

func (m DecodeMode) valid() bool {
	_, ok := modeNames[m]
	return ok
}
