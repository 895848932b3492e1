// Package section implements the typed section descriptor that composes
// every EWF1 segment file, and the per-type payload codecs layered on
// top of it (spec §4.4).
package section

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/evidentiary/ewfgo/checksum"
	"github.com/evidentiary/ewfgo/ewferror"
)

// Type names the legacy 16-byte ASCII section type tags (spec §3).
type Type string

const (
	TypeHeader  Type = "header"
	TypeHeader2 Type = "header2"
	TypeXHeader Type = "xheader"
	TypeVolume  Type = "volume"
	TypeDisk    Type = "disk"
	TypeData    Type = "data"
	TypeTable   Type = "table"
	TypeTable2  Type = "table2"
	TypeSectors Type = "sectors"
	TypeLtree   Type = "ltree"
	TypeSession Type = "session"
	TypeError2  Type = "error2"
	TypeDigest  Type = "digest"
	TypeHash    Type = "hash"
	TypeXHash   Type = "xhash"
	TypeNext    Type = "next"
	TypeDone    Type = "done"
)

// DescriptorSize is the EWF1 section descriptor's on-disk size (spec §6).
const DescriptorSize = 76

// Descriptor is the 76-byte EWF1 section descriptor: type tag, chain
// pointer, size, and a checksum over itself.
type Descriptor struct {
	TypeDefinition [16]byte
	NextOffset     uint64
	Size           uint64
	Padding        [40]byte
	Checksum       uint32
}

// TypeString returns the descriptor's type tag with trailing NULs trimmed.
func (d *Descriptor) TypeString() Type {
	return Type(bytes.TrimRight(d.TypeDefinition[:], "\x00"))
}

// ReadDescriptor parses a 76-byte section descriptor starting at data[0].
// The checksum covers the first 72 bytes (spec §6); a mismatch is
// reported as an INPUT/checksum_mismatch error since a corrupt
// descriptor cannot be safely trusted to locate the next section.
func ReadDescriptor(data []byte) (*Descriptor, error) {
	if len(data) < DescriptorSize {
		return nil, ewferror.IO("section.ReadDescriptor", ewferror.CodeRead,
			fmt.Errorf("need %d bytes, got %d", DescriptorSize, len(data)))
	}
	d := &Descriptor{}
	if err := binary.Read(bytes.NewReader(data[:DescriptorSize]), binary.LittleEndian, d); err != nil {
		return nil, ewferror.IO("section.ReadDescriptor", ewferror.CodeRead, err)
	}
	computed := checksum.Adler32(checksum.Seed, data[:DescriptorSize-4])
	if computed != d.Checksum {
		return nil, ewferror.Input("section.ReadDescriptor", ewferror.CodeChecksumMismatch,
			fmt.Errorf("descriptor checksum %#x != computed %#x", d.Checksum, computed))
	}
	return d, nil
}

// EncodeDescriptor writes a descriptor's 76-byte on-disk form, filling
// in the checksum over the first 72 bytes.
func EncodeDescriptor(typ Type, nextOffset, size uint64) []byte {
	d := Descriptor{NextOffset: nextOffset, Size: size}
	copy(d.TypeDefinition[:], typ)

	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, d.TypeDefinition)
	binary.Write(buf, binary.LittleEndian, d.NextOffset)
	binary.Write(buf, binary.LittleEndian, d.Size)
	binary.Write(buf, binary.LittleEndian, d.Padding)

	sum := checksum.Adler32(checksum.Seed, buf.Bytes())
	binary.Write(buf, binary.LittleEndian, sum)
	return buf.Bytes()
}

// Section is a parsed section: its descriptor, the file offset it was
// read from, and its raw payload bytes (interpretation is per-type,
// see header.go / media.go / table.go).
type Section struct {
	Descriptor Descriptor
	Offset     uint64
	Payload    []byte
}
