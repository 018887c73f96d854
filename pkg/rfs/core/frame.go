package core

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

// MaxFrameSize is the largest frame accepted on a link.
const MaxFrameSize = 1 << 20

// Size of the length prefix, in bytes.
const frameHeaderSize = 4

// WriteFrame writes the content prefixed by its length as a
// 4-byte big-endian integer.
func WriteFrame(w io.Writer, content []byte) error {
	if len(content) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", types.ErrFrameTooLarge, len(content))
	}

	buf := make([]byte, frameHeaderSize+len(content))
	binary.BigEndian.PutUint32(buf, uint32(len(content)))
	copy(buf[frameHeaderSize:], content)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads a single frame written by WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", types.ErrFrameTooLarge, size)
	}

	content := make([]byte, size)
	if _, err := io.ReadFull(r, content); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return content, nil
}
