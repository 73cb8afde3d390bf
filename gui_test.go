package imshow

import (
	"testing"
	"time"

	"gioui.org/io/key"
	"github.com/stretchr/testify/assert"
)

func TestGui_KeyCode(t *testing.T) {
	testCases := []struct {
		event key.Event
		want  Key
	}{
		{key.Event{Name: key.NameEscape}, KeyEscape},
		{key.Event{Name: key.NameReturn}, KeyEnter},
		{key.Event{Name: key.NameSpace}, KeySpace},
		{key.Event{Name: key.NameDeleteBackward}, KeyBackspace},
		{key.Event{Name: key.NameLeftArrow}, KeyLeft},
		{key.Event{Name: "Q"}, Key('q')},
		{key.Event{Name: "Q", Modifiers: key.ModShift}, Key('Q')},
		{key.Event{Name: "7"}, Key('7')},
		{key.Event{Name: "F1"}, KeyUnknown},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, keyCode(tc.event), string(tc.event.Name))
	}
}

func TestGui_WaitKeyReturnsPressedKey(t *testing.T) {
	keys := make(chan Key, 1)
	done := make(chan struct{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		keys <- Key('a')
	}()

	assert.Equal(t, Key('a'), waitKey(keys, done, 0))
}

func TestGui_WaitKeyTimeout(t *testing.T) {
	keys := make(chan Key)
	done := make(chan struct{})

	start := time.Now()
	assert.Equal(t, NoKey, waitKey(keys, done, 30*time.Millisecond))

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestGui_WaitKeyClosedWindow(t *testing.T) {
	keys := make(chan Key, 1)
	done := make(chan struct{})
	close(done)

	assert.Equal(t, NoKey, waitKey(keys, done, 0))

	// A key pressed right before the window got closed is still reported.
	keys <- KeyEscape
	assert.Equal(t, KeyEscape, waitKey(keys, done, 0))
}

func TestGui_ShowRejectsInvalidInput(t *testing.T) {
	g := &Gui{name: "closed", done: make(chan struct{})}
	assert.ErrorIs(t, g.Show(&Buffer{}), ErrEmptyBuffer)
	assert.ErrorIs(t, g.Show(nil), ErrEmptyBuffer)

	close(g.done)
	assert.ErrorIs(t, g.Show(NewBuffer(2, 2, 3)), ErrWindowClosed)
	assert.Equal(t, "closed", g.Name())
}
