package imshow

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode_Parse(t *testing.T) {
	testCases := map[string]DecodeMode{
		"unchanged":           Unchanged,
		"GRAYSCALE":           Grayscale,
		"gray":                Grayscale,
		"color":               Color,
		"colour":              Color,
		"reduced_color_2":     ReducedColor2,
		"reduced-grayscale-8": ReducedGrayscale8,
	}
	for name, want := range testCases {
		got, err := ParseMode(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseMode("sepia")
	assert.Error(t, err)
}

func TestMode_StringRoundTrip(t *testing.T) {
	for mode := range modeNames {
		parsed, err := ParseMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}
	assert.Equal(t, "DecodeMode(99)", DecodeMode(99).String())
}

func TestMode_Properties(t *testing.T) {
	assert.Equal(t, 0, Unchanged.Channels())
	assert.Equal(t, 1, Grayscale.Channels())
	assert.Equal(t, 3, Color.Channels())
	assert.Equal(t, 1, ReducedGrayscale4.Channels())
	assert.Equal(t, 3, ReducedColor8.Channels())

	assert.Equal(t, 1, Color.Reduction())
	assert.Equal(t, 2, ReducedGrayscale2.Reduction())
	assert.Equal(t, 4, ReducedColor4.Reduction())
	assert.Equal(t, 8, ReducedGrayscale8.Reduction())

	assert.False(t, Unchanged.AutoOrient())
	assert.True(t, Grayscale.AutoOrient())
}

func TestMode_FlagValue(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	mode := Unchanged
	fs.Var(&mode, "mode", "decode mode")

	require.NoError(t, fs.Parse([]string{"-mode", "reduced-color-4"}))
	assert.Equal(t, ReducedColor4, mode)

	fs.SetOutput(discard{})
	assert.Error(t, fs.Parse([]string{"-mode", "invalid"}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestMode_Names(t *testing.T) {
	names := ModeNames()
	assert.Len(t, names, 9)
	assert.Equal(t, "unchanged", names[0])
	assert.Equal(t, "reduced-color-8", names[len(names)-1])
}
