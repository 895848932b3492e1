package section

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/evidentiary/ewfgo/bfio"
)

func TestDescriptorEncodeDecodeRoundTrip(t *testing.T) {
	encoded := EncodeDescriptor(TypeVolume, 76+1052, 76+1052)
	d, err := ReadDescriptor(encoded)
	if err != nil {
		t.Fatalf("ReadDescriptor: %v", err)
	}
	if d.TypeString() != TypeVolume {
		t.Fatalf("type = %q, want %q", d.TypeString(), TypeVolume)
	}
	if d.NextOffset != 76+1052 || d.Size != 76+1052 {
		t.Fatalf("unexpected offset/size: %+v", d)
	}
}

func TestDescriptorChecksumMismatch(t *testing.T) {
	encoded := EncodeDescriptor(TypeData, 200, 200)
	encoded[0] ^= 0xFF // corrupt the type tag inside the checksummed region
	if _, err := ReadDescriptor(encoded); err == nil {
		t.Fatal("expected checksum mismatch error, got nil")
	}
}

func TestMediaValuesEncodeDecodeRoundTrip(t *testing.T) {
	mv := &MediaValues{
		MediaType:        MediaFixed,
		MediaFlags:       FlagImage | FlagPhysical,
		BytesPerSector:   512,
		NumberOfSectors:  1000,
		ChunkSectors:     64,
		ErrorGranularity: 64,
		CompressionLevel: 1,
		NumberOfChunks:   16,
	}
	encoded, err := EncodeMediaValues(mv)
	if err != nil {
		t.Fatalf("EncodeMediaValues: %v", err)
	}
	got, err := DecodeMediaValues(encoded)
	if err != nil {
		t.Fatalf("DecodeMediaValues: %v", err)
	}
	if diff := cmp.Diff(mv, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMediaValuesSize(t *testing.T) {
	mv := &MediaValues{BytesPerSector: 512, NumberOfSectors: 2048}
	if got, want := mv.MediaSize(), uint64(512*2048); got != want {
		t.Fatalf("MediaSize() = %d, want %d", got, want)
	}
}

func TestMediaValuesValidateRejectsZero(t *testing.T) {
	mv := &MediaValues{}
	if err := mv.Validate(); err == nil {
		t.Fatal("expected validation error for zero bytes_per_sector/chunk_size")
	}
}

func TestTableEncodeDecodeRoundTrip(t *testing.T) {
	tbl := &Table{
		BaseOffset: 76,
		Entries: []TableEntry{
			{OffsetFromBase: 0, Compressed: false},
			{OffsetFromBase: 512, Compressed: true},
			{OffsetFromBase: 1600, Compressed: false},
		},
	}
	encoded := EncodeTable(tbl)
	got, err := DecodeTable(encoded)
	if err != nil {
		t.Fatalf("DecodeTable: %v", err)
	}
	if diff := cmp.Diff(tbl, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveChunkRange(t *testing.T) {
	tbl := &Table{
		BaseOffset: 1000,
		Entries: []TableEntry{
			{OffsetFromBase: 0, Compressed: false},
			{OffsetFromBase: 300, Compressed: true},
		},
	}
	off0, size0, compressed0 := tbl.ResolveChunkRange(0, 1600)
	if off0 != 1000 || size0 != 300 || compressed0 {
		t.Fatalf("entry 0: off=%d size=%d compressed=%v", off0, size0, compressed0)
	}
	off1, size1, compressed1 := tbl.ResolveChunkRange(1, 1600)
	if off1 != 1300 || size1 != 300 || !compressed1 {
		t.Fatalf("entry 1: off=%d size=%d compressed=%v", off1, size1, compressed1)
	}
}

func TestDigestEncodeDecodeRoundTrip(t *testing.T) {
	d := &Digest{}
	for i := range d.MD5 {
		d.MD5[i] = byte(i)
	}
	for i := range d.SHA1 {
		d.SHA1[i] = byte(i + 1)
	}
	encoded := EncodeDigest(d)
	got, err := DecodeDigest(encoded)
	if err != nil {
		t.Fatalf("DecodeDigest: %v", err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadChainStopsAtDone(t *testing.T) {
	h := bfio.NewMemHandle()

	volPayload := make([]byte, 1052)
	volDesc := EncodeDescriptor(TypeVolume, 76, 76+uint64(len(volPayload)))
	h.WriteAt(volDesc, 0)
	h.WriteAt(volPayload, 76)

	doneOffset := int64(76 + len(volPayload))
	doneDesc := EncodeDescriptor(TypeDone, uint64(doneOffset), 76)
	h.WriteAt(doneDesc, doneOffset)

	sections, err := ReadChain(h, 0)
	if err != nil {
		t.Fatalf("ReadChain: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Descriptor.TypeString() != TypeVolume {
		t.Fatalf("section 0 type = %q", sections[0].Descriptor.TypeString())
	}
	if sections[1].Descriptor.TypeString() != TypeDone {
		t.Fatalf("section 1 type = %q", sections[1].Descriptor.TypeString())
	}
}

func TestReadChainRejectsNonAdvancingOffset(t *testing.T) {
	h := bfio.NewMemHandle()
	// next_offset equal to self: a corrupt chain that must not spin forever.
	desc := EncodeDescriptor(TypeVolume, 0, 76)
	h.WriteAt(desc, 0)

	if _, err := ReadChain(h, 0); err == nil {
		t.Fatal("expected error for non-advancing next_offset, got nil")
	}
}
