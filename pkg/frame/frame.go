package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the length prefix.
const HeaderSize = 4

// DefaultMaxPayload bounds the declared payload length when no explicit
// limit is configured.
const DefaultMaxPayload uint32 = 16 << 20

var (
	// ErrShortRead is returned when the stream ends or errors before the
	// header or the full payload has arrived.
	ErrShortRead = errors.New("frame: short read")

	// ErrOversizedFrame is returned when the declared length exceeds the
	// decoder's limit. No payload bytes are consumed in that case.
	ErrOversizedFrame = errors.New("frame: oversized frame")
)

// Decoder reads frames from a byte stream. It keeps no state between calls
// other than the underlying reader's position.
type Decoder struct {
	r   io.Reader
	max uint32
}

// NewDecoder returns a Decoder reading from r. A zero max selects
// DefaultMaxPayload.
func NewDecoder(r io.Reader, max uint32) *Decoder {
	if max == 0 {
		max = DefaultMaxPayload
	}
	return &Decoder{r: r, max: max}
}

// MaxPayload returns the largest payload length the decoder accepts.
func (d *Decoder) MaxPayload() uint32 { return d.max }

// Next blocks until a complete frame has been read and returns its payload.
// A partial frame is never returned.
func (d *Decoder) Next() ([]byte, error) {
	var header [HeaderSize]byte
	if err := readFull(d.r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: length prefix: %w", ErrShortRead, err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if n > d.max {
		return nil, fmt.Errorf("%w: length %d exceeds maximum %d", ErrOversizedFrame, n, d.max)
	}

	payload := make([]byte, n)
	if err := readFull(d.r, payload); err != nil {
		return nil, fmt.Errorf("%w: payload of %d bytes: %w", ErrShortRead, n, err)
	}
	return payload, nil
}

// readFull wraps io.ReadFull so a clean EOF before any byte still reports
// as unexpected: the caller always asked for a non-empty unit.
func readFull(r io.Reader, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	_, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// WriteFrame writes payload to w with its length prefix in a single Write.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return fmt.Errorf("%w: payload of %d bytes cannot be framed", ErrOversizedFrame, len(payload))
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[:HeaderSize], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	_, err := w.Write(buf)
	return err
}
