package abx

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf8"

	abxerrors "github.com/rhythmcache/xml2abx/errors"
)

const writerBufferSize = 32 * 1024

// Writer appends big-endian scalars and length-prefixed strings to a sink.
// The first sink failure is sticky: later calls return the same error.
type Writer struct {
	w       *bufio.Writer
	err     error
	pool    StringPool
	written int64
	scratch [8]byte
}

// NewWriter creates a buffered Writer for w. Callers must call Flush at stream end.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, writerBufferSize)}
}

// WriteByte writes one unsigned byte.
func (w *Writer) WriteByte(v byte) error {
	w.scratch[0] = v
	return w.write(w.scratch[:1])
}

// WriteShort writes a 16-bit unsigned value.
func (w *Writer) WriteShort(v uint16) error {
	binary.BigEndian.PutUint16(w.scratch[:2], v)
	return w.write(w.scratch[:2])
}

// WriteInt writes a 32-bit signed value.
func (w *Writer) WriteInt(v int32) error {
	binary.BigEndian.PutUint32(w.scratch[:4], uint32(v))
	return w.write(w.scratch[:4])
}

// WriteLong writes a 64-bit signed value.
func (w *Writer) WriteLong(v int64) error {
	binary.BigEndian.PutUint64(w.scratch[:8], uint64(v))
	return w.write(w.scratch[:8])
}

// WriteFloat writes an IEEE-754 single precision value.
func (w *Writer) WriteFloat(v float32) error {
	binary.BigEndian.PutUint32(w.scratch[:4], math.Float32bits(v))
	return w.write(w.scratch[:4])
}

// WriteDouble writes an IEEE-754 double precision value.
func (w *Writer) WriteDouble(v float64) error {
	binary.BigEndian.PutUint64(w.scratch[:8], math.Float64bits(v))
	return w.write(w.scratch[:8])
}

// WriteUTF writes s as a 2-byte length followed by its UTF-8 bytes.
func (w *Writer) WriteUTF(s string) error {
	if err := checkUTF(s); err != nil {
		return err
	}
	if err := w.WriteShort(uint16(len(s))); err != nil {
		return err
	}
	return w.writeString(s)
}

// WriteInternedUTF writes the pool index of s, or the sentinel followed by s
// when s is new. A new string is registered only after it was written.
func (w *Writer) WriteInternedUTF(s string) error {
	if idx, ok := w.pool.Lookup(s); ok {
		return w.WriteShort(idx)
	}
	if err := w.pool.checkCapacity(); err != nil {
		return err
	}
	if err := checkUTF(s); err != nil {
		return err
	}
	if err := w.WriteShort(internSentinel); err != nil {
		return err
	}
	if err := w.WriteUTF(s); err != nil {
		return err
	}
	_, err := w.pool.Add(s)
	return err
}

// WriteBytes writes data without a length prefix.
func (w *Writer) WriteBytes(data []byte) error {
	return w.write(data)
}

// WriteBlob writes data as a 2-byte length followed by the raw bytes.
func (w *Writer) WriteBlob(data []byte) error {
	if len(data) > MaxUnsignedShort {
		return abxerrors.TooLong(abxerrors.ErrBinaryTooLong, len(data), MaxUnsignedShort)
	}
	if err := w.WriteShort(uint16(len(data))); err != nil {
		return err
	}
	return w.write(data)
}

// Flush forwards buffered bytes to the sink.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = abxerrors.Wrap(abxerrors.ErrIO, "flush output", err)
		return w.err
	}
	return nil
}

// Written reports the number of bytes accepted so far, buffered or not.
func (w *Writer) Written() int64 {
	return w.written
}

// Pool returns the writer's string pool.
func (w *Writer) Pool() *StringPool {
	return &w.pool
}

func (w *Writer) write(p []byte) error {
	if w.err != nil {
		return w.err
	}
	n, err := w.w.Write(p)
	w.written += int64(n)
	if err != nil {
		w.err = abxerrors.Wrap(abxerrors.ErrIO, "write output", err)
		return w.err
	}
	return nil
}

func (w *Writer) writeString(s string) error {
	if w.err != nil {
		return w.err
	}
	n, err := w.w.WriteString(s)
	w.written += int64(n)
	if err != nil {
		w.err = abxerrors.Wrap(abxerrors.ErrIO, "write output", err)
		return w.err
	}
	return nil
}

func checkUTF(s string) error {
	if len(s) > MaxUnsignedShort {
		return abxerrors.TooLong(abxerrors.ErrStringTooLong, len(s), MaxUnsignedShort)
	}
	if !utf8.ValidString(s) {
		return abxerrors.New(abxerrors.ErrInvalidEncoding, "string is not valid UTF-8")
	}
	return nil
}
