package stdio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_SplitAcrossChunks(t *testing.T) {
	decoder := NewDecoder()

	lines := decoder.Feed([]byte(`{"jsonrpc":"2.0","id":1,"result":1}` + "\n" + `{"jsonrpc":"2.0","id":2`))
	require.Len(t, lines, 1)
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"result":1}`, string(lines[0]))
	assert.Greater(t, decoder.Buffered(), 0)

	lines = decoder.Feed([]byte(`,"result":2}` + "\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, `{"jsonrpc":"2.0","id":2,"result":2}`, string(lines[0]))
	assert.Equal(t, 0, decoder.Buffered())
}

func TestDecoder_MultipleLinesOneChunk(t *testing.T) {
	decoder := NewDecoder()
	lines := decoder.Feed([]byte("a\nb\nc\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "a", string(lines[0]))
	assert.Equal(t, "c", string(lines[2]))
}

func TestDecoder_SkipsBlankLines(t *testing.T) {
	decoder := NewDecoder()
	lines := decoder.Feed([]byte("\n\r\n  \nmessage\r\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, "message", string(lines[0]))
}

func TestDecoder_ByteAtATime(t *testing.T) {
	decoder := NewDecoder()
	payload := `{"x":1}` + "\n"
	var lines [][]byte
	for i := 0; i < len(payload); i++ {
		lines = append(lines, decoder.Feed([]byte{payload[i]})...)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, `{"x":1}`, string(lines[0]))
}

func TestDecoder_ReturnedSlicesSurviveNextFeed(t *testing.T) {
	decoder := NewDecoder()
	first := decoder.Feed([]byte("hold\n"))
	require.Len(t, first, 1)
	decoder.Feed([]byte("overwrite attempt\n"))
	assert.Equal(t, "hold", string(first[0]))
}
