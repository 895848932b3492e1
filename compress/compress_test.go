package compress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/evidentiary/ewfgo/ewferror"
)

func TestDeflateRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("Hello, world!\n"), 100)
	packed, err := Compress(MethodDeflate, ImplStdlib, LevelDefault, src, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := Decompress(MethodDeflate, packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("round trip mismatch")
	}
}

func TestDeflateKlauspostRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 4096)
	packed, err := Compress(MethodDeflate, ImplKlauspost, LevelBest, src, 0)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	out, err := Decompress(MethodDeflate, packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("round trip mismatch")
	}
}

func TestCompressTooSmall(t *testing.T) {
	src := make([]byte, 32768)
	for i := range src {
		src[i] = byte(i * 7)
	}
	_, err := Compress(MethodDeflate, ImplStdlib, LevelBest, src, 4)
	var ewfErr *ewferror.Error
	if err == nil {
		t.Fatalf("expected ErrTooSmall, got nil")
	}
	if !errors.As(err, &ewfErr) || ewfErr.Kind != ewferror.CodeTooSmall {
		t.Fatalf("expected CodeTooSmall, got %v", err)
	}
}
