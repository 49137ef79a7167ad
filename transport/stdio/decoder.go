package stdio

import "bytes"

// Decoder recovers discrete messages from a newline-delimited byte stream.
// It keeps the trailing partial line between feeds, so a message split
// across reads is only surfaced once its terminating newline arrives.
type Decoder struct {
	buffer []byte
}

// NewDecoder creates an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk to the internal buffer and returns every complete
// line it now holds, newline and surrounding whitespace stripped. Empty
// lines are skipped. Returned slices are copies and remain valid after the
// next Feed.
func (d *Decoder) Feed(chunk []byte) [][]byte {
	d.buffer = append(d.buffer, chunk...)
	var lines [][]byte
	for {
		index := bytes.IndexByte(d.buffer, '\n')
		if index < 0 {
			break
		}
		line := bytes.TrimSpace(d.buffer[:index])
		d.buffer = d.buffer[index+1:]
		if len(line) == 0 {
			continue
		}
		message := make([]byte, len(line))
		copy(message, line)
		lines = append(lines, message)
	}
	if len(d.buffer) == 0 {
		d.buffer = nil
	}
	return lines
}

// Buffered returns the number of bytes held back waiting for a newline.
func (d *Decoder) Buffered() int {
	return len(d.buffer)
}
