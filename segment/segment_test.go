package segment

import (
	"testing"

	"github.com/evidentiary/ewfgo/bfio"
	"github.com/evidentiary/ewfgo/section"
)

func TestCreateWriteThenOpenReadRoundTrip(t *testing.T) {
	h := bfio.NewMemHandle()
	var setID [16]byte
	copy(setID[:], "0123456789abcdef")

	f, err := CreateWrite("case.E01", h, KindEWF1, 1, 0, setID)
	if err != nil {
		t.Fatalf("CreateWrite: %v", err)
	}

	mv := []byte{1, 2, 3}
	volEnd := f.NextSectionOffset() + uint64(section.DescriptorSize+len(mv)) + uint64(section.DescriptorSize)
	if _, err := f.AppendSection(section.TypeVolume, mv, volEnd); err != nil {
		t.Fatalf("AppendSection volume: %v", err)
	}
	doneOffset := f.NextSectionOffset()
	if _, err := f.AppendSection(section.TypeDone, nil, doneOffset); err != nil {
		t.Fatalf("AppendSection done: %v", err)
	}
	if err := f.Correct(); err != nil {
		t.Fatalf("Correct: %v", err)
	}

	reopened, err := OpenRead("case.E01", h)
	if err != nil {
		t.Fatalf("OpenRead: %v", err)
	}
	if reopened.Kind != KindEWF1 {
		t.Fatalf("kind = %v, want KindEWF1", reopened.Kind)
	}
	if reopened.Fields.SegmentNumber != 1 {
		t.Fatalf("segment number = %d, want 1", reopened.Fields.SegmentNumber)
	}
	if len(reopened.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(reopened.Sections))
	}
	if reopened.Sections[0].Descriptor.TypeString() != section.TypeVolume {
		t.Fatalf("section 0 type = %q", reopened.Sections[0].Descriptor.TypeString())
	}
	if reopened.Sections[1].Descriptor.TypeString() != section.TypeDone {
		t.Fatalf("section 1 type = %q", reopened.Sections[1].Descriptor.TypeString())
	}
}

func TestOpenReadRejectsUnknownSignature(t *testing.T) {
	h := bfio.NewMemHandle()
	h.WriteAt([]byte("NOTANEWF"), 0)
	if _, err := OpenRead("bogus", h); err == nil {
		t.Fatal("expected signature mismatch error, got nil")
	}
}

func TestFieldsHeaderEWF2RoundTrip(t *testing.T) {
	var setID [16]byte
	copy(setID[:], "fedcba9876543210")
	fh := FieldsHeader{SegmentNumber: 7, MajorVersion: 1, MinorVersion: 0, CompressionMethod: 2, SetIdentifier: setID}

	encoded := encodeFieldsHeaderEWF2(fh)
	decoded := decodeFieldsHeaderEWF2(encoded)
	if decoded != fh {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, fh)
	}
}
