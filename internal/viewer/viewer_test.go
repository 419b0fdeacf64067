package viewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMimeType(t *testing.T) {
	mimeType := MimeType("Table")
	assert.Equal(t, "application/x-viewer;label=Table", mimeType)
	assert.True(t, IsViewer(mimeType))
}

func TestLabel(t *testing.T) {
	label, ok := Label("application/x-viewer;label=Table")
	require.True(t, ok)
	assert.Equal(t, "Table", label)
}

func TestLabel_NotViewer(t *testing.T) {
	_, ok := Label("text/csv")
	assert.False(t, ok)

	_, ok = Label("application/json")
	assert.False(t, ok)

	_, ok = Label("")
	assert.False(t, ok)
}

func TestLabel_EscapedCharacters(t *testing.T) {
	label, ok := Label(MimeType("Scatter Plot (2D)"))
	require.True(t, ok)
	assert.Equal(t, "Scatter Plot (2D)", label)
}

func TestIsViewer_PlainMimeTypes(t *testing.T) {
	assert.False(t, IsViewer("text/csv"))
	assert.False(t, IsViewer("application/x-viewers"))
}

// Labels must survive the encoding round trip no matter what
// characters they contain.
func TestRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		label := rapid.String().Draw(rt, "label")

		mimeType := MimeType(label)
		require.True(t, IsViewer(mimeType))

		decoded, ok := Label(mimeType)
		require.True(t, ok)
		require.Equal(t, label, decoded)
	})
}
