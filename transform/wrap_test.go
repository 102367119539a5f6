package transform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.Equal(t, `<div class="a b"><p>x</p></div>`, Wrap("<p>x</p>", []string{"a", "b"}))
	assert.Equal(t, `<div class="a"></div>`, Wrap("", []string{"", "a", ""}))
	assert.Equal(t, "<p>x</p>", Wrap("<p>x</p>", nil))
	assert.Equal(t, "<p>x</p>", Wrap("<p>x</p>", []string{"", ""}))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/src/doc.md", "/src/doc.md"},
		{"/src/doc.md?raw", "/src/doc.md"},
		{"/src/doc.md?a?b", "/src/doc.md"},
		{"?x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseID(tt.id), tt.id)
	}
}

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame(" React ")
	require.NoError(t, err)
	assert.Equal(t, FrameReact, f)

	_, err = ParseFrame("angular")
	assert.True(t, errors.Is(err, ErrUnknownFrame))
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	err := wrap(cause, CategoryHook, "/doc.md", "before transform")
	assert.Equal(t, "/doc.md: before transform (hook): boom", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "frame is required (config)", (&Error{Category: CategoryConfig, Message: "frame is required"}).Error())
}
