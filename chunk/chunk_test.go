package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/evidentiary/ewfgo/compress"
	"github.com/evidentiary/ewfgo/ewferror"
	"github.com/google/go-cmp/cmp"
)

const chunkSize = 32768

func TestPackEmptyBlock(t *testing.T) {
	blob := []byte{0x78, 0x9C, 0x62, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}
	data := make([]byte, chunkSize)

	c, err := Pack(data, chunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelDefault,
		UseEmptyBlockCompression, blob)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(c.Packed) != len(blob) {
		t.Fatalf("packed length = %d, want %d", len(c.Packed), len(blob))
	}
	if !bytes.Equal(c.Packed, blob) {
		t.Fatalf("packed bytes differ from reference blob")
	}

	out, flags, err := Unpack(c.Packed, chunkSize, compress.MethodDeflate, c.RangeFlags, 0, false)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if flags.Has(IsCorrupted) {
		t.Fatalf("unexpected corruption flag")
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("unpack did not restore all zeros")
	}
}

func TestPackPatternFill(t *testing.T) {
	var pattern uint64 = 0xDEADBEEFCAFEBABE
	data := make([]byte, chunkSize)
	for i := 0; i < len(data); i += 8 {
		binary.LittleEndian.PutUint64(data[i:], pattern)
	}

	c, err := Pack(data, chunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelDefault,
		UsePatternFillCompression, nil)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(c.Packed) != 8 {
		t.Fatalf("packed length = %d, want 8", len(c.Packed))
	}
	want := []byte{0xBE, 0xBA, 0xFE, 0xCA, 0xEF, 0xBE, 0xAD, 0xDE}
	if !bytes.Equal(c.Packed, want) {
		t.Fatalf("packed bytes = % x, want % x", c.Packed, want)
	}
	if !c.RangeFlags.Has(IsCompressed) || !c.RangeFlags.Has(UsesPatternFill) {
		t.Fatalf("range flags = %v, want IsCompressed|UsesPatternFill", c.RangeFlags)
	}

	out, _, err := Unpack(c.Packed, chunkSize, compress.MethodDeflate, c.RangeFlags, 0, false)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("unpack did not restore pattern-fill chunk")
	}
}

func TestPackSmallTextDeflate(t *testing.T) {
	data := make([]byte, chunkSize)
	copy(data, []byte("Hello, world!\n"))

	c, err := Pack(data, chunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelDefault, 0, nil)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(c.Packed) >= 512 {
		t.Fatalf("packed size = %d, want < 512", len(c.Packed))
	}

	out, _, err := Unpack(c.Packed, chunkSize, compress.MethodDeflate, c.RangeFlags, 0, false)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("unpack mismatch")
	}
}

func TestPackUnpackChecksumRoundTrip(t *testing.T) {
	data := make([]byte, chunkSize)
	for i := range data {
		data[i] = byte(i * 31)
	}

	c, err := Pack(data, chunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelNone, CalculateChecksum, nil)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !c.RangeFlags.Has(HasChecksum) {
		t.Fatalf("expected HasChecksum flag")
	}

	out, flags, err := Unpack(c.Packed, chunkSize, compress.MethodDeflate, c.RangeFlags, 0, false)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if flags.Has(IsCorrupted) {
		t.Fatalf("unexpected corruption")
	}
	if diff := cmp.Diff(data, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestForceCompressionHighEntropyFails(t *testing.T) {
	data := make([]byte, chunkSize)
	seed := uint32(0x9E3779B9)
	for i := range data {
		seed = seed*1103515245 + 12345
		data[i] = byte(seed >> 16)
	}

	_, err := Pack(data, chunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelBest, ForceCompression, nil)
	if err == nil {
		t.Fatalf("expected error for forced compression of high-entropy data")
	}
	var ewfErr *ewferror.Error
	if !errors.As(err, &ewfErr) || ewfErr.Kind != ewferror.CodeTooSmall {
		t.Fatalf("expected CodeTooSmall, got %v", err)
	}
}

func TestChecksumMismatchMarksCorrupted(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, chunkSize)
	c, err := Pack(data, chunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelNone, CalculateChecksum, nil)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	corrupted := append([]byte(nil), c.Packed...)
	corrupted[len(corrupted)-1] ^= 0xFF // flip a checksum byte

	out, flags, err := Unpack(corrupted, chunkSize, compress.MethodDeflate, c.RangeFlags, 0, false)
	if err != nil {
		t.Fatalf("Unpack should not return an error on corruption: %v", err)
	}
	if !flags.Has(IsCorrupted) {
		t.Fatalf("expected IsCorrupted flag")
	}
	if !bytes.Equal(out, make([]byte, chunkSize)) {
		t.Fatalf("expected zeroed output for corrupted chunk")
	}
}

func TestAlignmentPadding(t *testing.T) {
	data := make([]byte, chunkSize)
	copy(data, []byte("pad me"))

	c, err := Pack(data, chunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelNone,
		CalculateChecksum|AddAlignmentPadding, nil)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if (len(c.Packed))%16 != 0 {
		t.Fatalf("packed size %d not 16-byte aligned", len(c.Packed))
	}
	if c.PaddingSize >= 16 {
		t.Fatalf("padding size %d >= 16", c.PaddingSize)
	}
	for i := len(c.Packed) - int(c.PaddingSize); i < len(c.Packed); i++ {
		if c.Packed[i] != 0 {
			t.Fatalf("padding byte %d is not zero", i)
		}
	}
}
