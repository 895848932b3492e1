package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/evidentiary/ewfgo/bfio"
	"github.com/evidentiary/ewfgo/ewferror"
	"github.com/evidentiary/ewfgo/section"
)

// state tracks a File's lifecycle (spec §5: "Segment file... initial,
// open-reading/open-writing, closed").
type state int

const (
	stateInitial state = iota
	stateOpenReading
	stateOpenWriting
	stateClosed
)

// fieldsHeaderEWF1Size is the 5-byte EWF1 fields header: segment_number
// (2 bytes LE) plus 3 reserved bytes (spec §6).
const fieldsHeaderEWF1Size = 5

// fieldsHeaderEWF2Size is the EWF2 fields header: major_version(1),
// minor_version(1), compression_method(2 LE), segment_number(2 LE),
// set_identifier(16).
const fieldsHeaderEWF2Size = 22

// headerSize is signature + fields header, the fixed prefix before the
// first section descriptor.
func headerSize(k Kind) int64 {
	if k.IsEWF2() {
		return 8 + fieldsHeaderEWF2Size
	}
	return 8 + fieldsHeaderEWF1Size
}

// FieldsHeader is the decoded per-segment-file header following the
// 8-byte signature. EWF1 only carries a segment number; EWF2 adds a
// version pair, a compression method selector, and the evidence set's
// GUID (spec §6).
type FieldsHeader struct {
	SegmentNumber     uint16
	MajorVersion      uint8
	MinorVersion      uint8
	CompressionMethod uint16
	SetIdentifier     [16]byte
}

// File is one segment file of a segment set: its identity (kind,
// number), its backing store, and its parsed section chain. It never
// opens its own backing store — that is the caller's io pool's job
// (spec §5, "per-handle mutex guarding file-IO pool").
type File struct {
	Kind        Kind
	Fields      FieldsHeader
	Name        string
	backing     bfio.Handle
	state       state
	Sections    []*section.Section
	LastSection *section.Section
}

// OpenRead identifies a segment file's kind from its on-disk signature,
// parses its fields header, and walks its section chain up to its
// "next"/"done" terminator (spec
// §5, open_read). name is carried for diagnostics and for the segment
// table's later re-resolution of this file by its extension.
func OpenRead(name string, h bfio.Handle) (*File, error) {
	var sigBytes [8]byte
	if _, err := h.ReadAt(sigBytes[:], 0); err != nil {
		return nil, ewferror.IO("segment.OpenRead", ewferror.CodeRead, err)
	}
	kind, err := IdentifySignature(sigBytes)
	if err != nil {
		return nil, err
	}

	fieldsSize := fieldsHeaderEWF1Size
	if kind.IsEWF2() {
		fieldsSize = fieldsHeaderEWF2Size
	}
	fields := make([]byte, fieldsSize)
	if _, err := h.ReadAt(fields, 8); err != nil {
		return nil, ewferror.IO("segment.OpenRead", ewferror.CodeRead, err)
	}

	f := &File{Kind: kind, Name: name, backing: h, state: stateOpenReading}
	if kind.IsEWF2() {
		f.Fields = decodeFieldsHeaderEWF2(fields)
	} else {
		f.Fields = decodeFieldsHeaderEWF1(fields)
	}

	sections, err := section.ReadChain(h, uint64(headerSize(kind)))
	if err != nil {
		return nil, fmt.Errorf("segment.OpenRead %s: %w", name, err)
	}
	f.Sections = sections
	if len(sections) > 0 {
		f.LastSection = sections[len(sections)-1]
	}
	return f, nil
}

// CreateWrite starts a new segment file for writing: it writes the
// signature and fields header and returns a File ready to have sections
// appended (spec §5, open_write).
func CreateWrite(name string, h bfio.Handle, kind Kind, segmentNumber uint16, compressionMethod uint16, setIdentifier [16]byte) (*File, error) {
	f := &File{
		Kind: kind,
		Fields: FieldsHeader{
			SegmentNumber:     segmentNumber,
			MajorVersion:      1,
			MinorVersion:      0,
			CompressionMethod: compressionMethod,
			SetIdentifier:     setIdentifier,
		},
		Name:    name,
		backing: h,
		state:   stateOpenWriting,
	}

	sig := SignatureFor(kind)
	if _, err := h.WriteAt(sig[:], 0); err != nil {
		return nil, ewferror.IO("segment.CreateWrite", ewferror.CodeWrite, err)
	}

	var fields []byte
	if kind.IsEWF2() {
		fields = encodeFieldsHeaderEWF2(f.Fields)
	} else {
		fields = encodeFieldsHeaderEWF1(f.Fields)
	}
	if _, err := h.WriteAt(fields, 8); err != nil {
		return nil, ewferror.IO("segment.CreateWrite", ewferror.CodeWrite, err)
	}
	return f, nil
}

// NextSectionOffset returns the file offset at which a new section
// descriptor should be appended.
func (f *File) NextSectionOffset() uint64 {
	if f.LastSection == nil {
		return uint64(headerSize(f.Kind))
	}
	return f.LastSection.Offset + f.LastSection.Descriptor.Size
}

// AppendSection writes a new section (descriptor + payload) at the
// file's current write cursor and extends the in-memory chain. The
// descriptor's NextOffset is written as the given nextOffset; Correct
// later rewrites the chain in place during the sections-correction pass
// (spec §5, write-close).
func (f *File) AppendSection(typ section.Type, payload []byte, nextOffset uint64) (*section.Section, error) {
	offset := f.NextSectionOffset()
	size := uint64(section.DescriptorSize + len(payload))
	encoded := section.EncodeDescriptor(typ, nextOffset, size)

	if _, err := f.backing.WriteAt(encoded, int64(offset)); err != nil {
		return nil, ewferror.IO("segment.AppendSection", ewferror.CodeWrite, err)
	}
	if len(payload) > 0 {
		if _, err := f.backing.WriteAt(payload, int64(offset)+section.DescriptorSize); err != nil {
			return nil, ewferror.IO("segment.AppendSection", ewferror.CodeWrite, err)
		}
	}

	d, err := section.ReadDescriptor(encoded)
	if err != nil {
		return nil, err
	}
	s := &section.Section{Descriptor: *d, Offset: offset, Payload: payload}
	f.Sections = append(f.Sections, s)
	f.LastSection = s
	return s, nil
}

// Correct rewrites every section descriptor in the chain in place (the
// "sections-correction" pass, spec §5): offsets never shift; every
// section's descriptor and payload are written again from the in-memory
// chain, so any value changed there since AppendSection is patched.
func (f *File) Correct() error {
	return section.WriteChain(f.backing, f.Sections)
}

// Clone returns a shallow copy of f's parsed state sharing the same
// backing store, used for copy-on-write access from a reader while a
// writer still holds the file open (spec §5).
func (f *File) Clone() *File {
	clone := *f
	clone.Sections = append([]*section.Section(nil), f.Sections...)
	return &clone
}

// Backing returns the file's backing store, for callers that resolve
// chunk bytes directly (the chunk table).
func (f *File) Backing() bfio.Handle { return f.backing }

func (f *File) Close() error {
	if f.state == stateClosed {
		return nil
	}
	f.state = stateClosed
	return f.backing.Close()
}

func decodeFieldsHeaderEWF1(b []byte) FieldsHeader {
	return FieldsHeader{SegmentNumber: binary.LittleEndian.Uint16(b[0:2])}
}

func encodeFieldsHeaderEWF1(fh FieldsHeader) []byte {
	b := make([]byte, fieldsHeaderEWF1Size)
	binary.LittleEndian.PutUint16(b[0:2], fh.SegmentNumber)
	return b
}

func decodeFieldsHeaderEWF2(b []byte) FieldsHeader {
	fh := FieldsHeader{
		MajorVersion:      b[0],
		MinorVersion:      b[1],
		CompressionMethod: binary.LittleEndian.Uint16(b[2:4]),
		SegmentNumber:     binary.LittleEndian.Uint16(b[4:6]),
	}
	copy(fh.SetIdentifier[:], b[6:22])
	return fh
}

func encodeFieldsHeaderEWF2(fh FieldsHeader) []byte {
	b := make([]byte, fieldsHeaderEWF2Size)
	b[0] = fh.MajorVersion
	b[1] = fh.MinorVersion
	binary.LittleEndian.PutUint16(b[2:4], fh.CompressionMethod)
	binary.LittleEndian.PutUint16(b[4:6], fh.SegmentNumber)
	copy(b[6:22], fh.SetIdentifier[:])
	return b
}
