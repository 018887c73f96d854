package core

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/jabolina/go-rfs/pkg/rfs/types"
)

func TestFrame_RoundTripOverPipe(t *testing.T) {
	local, remote := net.Pipe()
	defer local.Close()
	defer remote.Close()

	texts := []string{"Server s0", "s0|WriteSyncRequest|3|File0.txt|a|b", ""}
	go func() {
		for _, text := range texts {
			if err := WriteFrame(local, []byte(text)); err != nil {
				t.Errorf("failed writing. %v", err)
				return
			}
		}
	}()

	for _, text := range texts {
		frame, err := ReadFrame(remote)
		if err != nil {
			t.Fatalf("failed reading. %v", err)
		}

		if string(frame) != text {
			t.Fatalf("expected %q, found %q", text, frame)
		}
	}
}

func TestFrame_RejectsLargeFrames(t *testing.T) {
	buf := &bytes.Buffer{}
	big := []byte(strings.Repeat("x", MaxFrameSize+1))
	if err := WriteFrame(buf, big); !errors.Is(err, types.ErrFrameTooLarge) {
		t.Fatalf("expected frame too large, found %v", err)
	}

	if buf.Len() != 0 {
		t.Fatalf("nothing should be written")
	}

	header := []byte{0xff, 0xff, 0xff, 0xff}
	if _, err := ReadFrame(bytes.NewReader(header)); !errors.Is(err, types.ErrFrameTooLarge) {
		t.Fatalf("expected frame too large, found %v", err)
	}
}

func TestFrame_TruncatedContent(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteFrame(buf, []byte("hello")); err != nil {
		t.Fatalf("failed writing. %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()-2]
	if _, err := ReadFrame(bytes.NewReader(truncated)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, found %v", err)
	}

	if _, err := ReadFrame(bytes.NewReader(nil)); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF on empty stream, found %v", err)
	}
}
