// Package json provides high-performance JSON serialization with pooled
// encode buffers
package json

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/borealis/pkg/pool"
)

// maxPooledBuffer caps the capacity a buffer may keep when it returns to
// the pool, so one oversized encode does not pin memory for the rest of
// the run.
const maxPooledBuffer = 1 << 20

// buffers recycles the scratch buffers behind MarshalToBuffer and
// MarshalString.
var buffers = pool.New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(b *bytes.Buffer) { b.Reset() },
)

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	return buffers.Get()
}

// PutBuffer returns a buffer to the pool. Buffers that grew past the
// pooling cap are swapped for fresh ones.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		buf = bytes.NewBuffer(make([]byte, 0, 4096))
	}
	buffers.Put(buf)
}

// newEncoder builds a goccy encoder with HTML escaping off; record
// payloads are log lines, not markup.
func newEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// Marshal is a high-performance drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a high-performance drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a high-performance replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// MarshalToWriter marshals v directly to a writer
func MarshalToWriter(w io.Writer, v interface{}) error {
	return newEncoder(w).Encode(v)
}

// MarshalToBuffer marshals v to a pooled buffer. The caller owns the
// buffer and must return it with PutBuffer.
func MarshalToBuffer(v interface{}) (*bytes.Buffer, error) {
	buf := GetBuffer()

	if err := newEncoder(buf).Encode(v); err != nil {
		PutBuffer(buf)
		return nil, err
	}

	return buf, nil
}

// MarshalString marshals v and returns the encoding as a string with the
// trailing newline trimmed. Used by formatters that emit one record per line.
func MarshalString(v interface{}) (string, error) {
	buf, err := MarshalToBuffer(v)
	if err != nil {
		return "", err
	}
	defer PutBuffer(buf)

	b := buf.Bytes()
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}

	return string(b), nil
}

// StreamingEncoder provides efficient streaming JSON encoding for sinks
// that emit many records into one output.
type StreamingEncoder struct {
	writer      io.Writer
	encoder     *gojson.Encoder
	firstRecord bool
	isArray     bool
	pretty      bool
	indent      string
}

// NewStreamingEncoder creates a new streaming encoder. When isArray is
// true the output is a single JSON array; otherwise records are emitted
// line-delimited.
func NewStreamingEncoder(w io.Writer, isArray bool) *StreamingEncoder {
	se := &StreamingEncoder{
		writer:      w,
		encoder:     newEncoder(w),
		firstRecord: true,
		isArray:     isArray,
	}

	if isArray {
		w.Write([]byte{'['})
	}

	return se
}

// SetPretty enables pretty printing
func (se *StreamingEncoder) SetPretty(pretty bool, indent string) {
	se.pretty = pretty
	se.indent = indent
	if pretty {
		se.encoder.SetIndent("", indent)
	}
}

// Encode encodes a single value. For line-delimited output the encoder
// adds the newline; array separators are handled here.
func (se *StreamingEncoder) Encode(v interface{}) error {
	if se.isArray {
		if !se.firstRecord {
			se.writer.Write([]byte{','})
			if se.pretty {
				se.writer.Write([]byte{'\n'})
			}
		}
		se.firstRecord = false
	}

	return se.encoder.Encode(v)
}

// Close finalizes the encoding
func (se *StreamingEncoder) Close() error {
	if se.isArray {
		if se.pretty {
			se.writer.Write([]byte{'\n'})
		}
		se.writer.Write([]byte{']'})
	}
	return nil
}
