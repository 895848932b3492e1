package chunktable

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/evidentiary/ewfgo/bfio"
	"github.com/evidentiary/ewfgo/chunk"
	"github.com/evidentiary/ewfgo/compress"
	"github.com/evidentiary/ewfgo/section"
)

const testChunkSize = 32768

func writeChunkData(t *testing.T, h *bfio.MemHandle, offset int64, data []byte) int {
	t.Helper()
	c, err := chunk.Pack(data, testChunkSize, compress.MethodDeflate, compress.ImplStdlib, compress.LevelDefault,
		chunk.CalculateChecksum|chunk.UsePatternFillCompression, nil)
	if err != nil {
		t.Fatalf("chunk.Pack: %v", err)
	}
	if _, err := h.WriteAt(c.Packed, offset); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	return len(c.Packed)
}

func TestGetResolvesAndUnpacksChunk(t *testing.T) {
	h := bfio.NewMemHandle()
	const baseOffset = 1000

	uncompressible := make([]byte, testChunkSize)
	rand.New(rand.NewSource(1)).Read(uncompressible)
	size0 := writeChunkData(t, h, baseOffset, uncompressible)

	pattern := make([]byte, testChunkSize)
	for i := 0; i < len(pattern); i += 8 {
		copy(pattern[i:], []byte{0xBE, 0xBA, 0xFE, 0xCA, 0xEF, 0xBE, 0xAD, 0xDE})
	}
	size1 := writeChunkData(t, h, baseOffset+int64(size0), pattern)

	tbl := &section.Table{
		BaseOffset: baseOffset,
		Entries: []section.TableEntry{
			{OffsetFromBase: 0, Compressed: false},
			{OffsetFromBase: uint32(size0), Compressed: true},
		},
	}
	sectionEnd := baseOffset + uint64(size0) + uint64(size1)

	ct := New(testChunkSize, compress.MethodDeflate, 8)
	ct.AddSegment(0, tbl, sectionEnd, h)

	got0, flags0, err := ct.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if !bytes.Equal(got0, uncompressible) {
		t.Fatalf("chunk 0 mismatch")
	}
	if flags0.Has(chunk.IsCorrupted) {
		t.Fatalf("chunk 0 unexpectedly corrupted")
	}

	got1, flags1, err := ct.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if !bytes.Equal(got1, pattern) {
		t.Fatalf("chunk 1 (pattern fill) mismatch")
	}
	if !flags1.Has(chunk.UsesPatternFill) {
		t.Fatalf("chunk 1 expected UsesPatternFill flag")
	}

	if n := ct.NumberOfChunks(); n != 2 {
		t.Fatalf("NumberOfChunks() = %d, want 2", n)
	}
}

func TestGetCachesRepeatedAccess(t *testing.T) {
	h := bfio.NewMemHandle()
	data := bytes.Repeat([]byte{0xAB}, testChunkSize)
	size := writeChunkData(t, h, 0, data)

	tbl := &section.Table{Entries: []section.TableEntry{{OffsetFromBase: 0, Compressed: true}}}
	ct := New(testChunkSize, compress.MethodDeflate, 4)
	ct.AddSegment(0, tbl, uint64(size), h)

	first, _, err := ct.Get(0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, _, err := ct.Get(0)
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("cached read mismatch")
	}
}

func TestGetOutOfRangeIndex(t *testing.T) {
	ct := New(testChunkSize, compress.MethodDeflate, 4)
	if _, _, err := ct.Get(0); err == nil {
		t.Fatal("expected out-of-range error for empty table")
	}
}

func TestDecodeWithFallbackUsesTable2OnCorruption(t *testing.T) {
	tbl := &section.Table{BaseOffset: 0, Entries: []section.TableEntry{{OffsetFromBase: 0}}}
	good := section.EncodeTable(tbl)
	bad := append([]byte(nil), good...)
	bad[0] ^= 0xFF // corrupt number_of_entries, breaking the header checksum

	got, err := DecodeWithFallback(bad, good)
	if err != nil {
		t.Fatalf("DecodeWithFallback: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected fallback table with 1 entry, got %d", len(got.Entries))
	}
}
