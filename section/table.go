package section

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/evidentiary/ewfgo/checksum"
	"github.com/evidentiary/ewfgo/ewferror"
)

// TableEntryCompressed is the high bit of a table entry (spec §4.4,
// "bit 31 = compressed").
const TableEntryCompressed uint32 = 1 << 31

// Table is a decoded table/table2 section: an ordered array of chunk
// offsets-from-base, each flagged compressed or not.
type Table struct {
	BaseOffset uint64
	Entries    []TableEntry
}

// TableEntry is one table row: the chunk's offset relative to the
// table's base_offset, and whether that chunk was stored compressed.
type TableEntry struct {
	OffsetFromBase uint32
	Compressed     bool
}

const tableHeaderSize = 24 // number_of_entries(4) + padding(4) + base_offset(8) + padding(4) + checksum(4)

// DecodeTable parses a table/table2 section payload (spec §4.4 and §6):
// number_of_entries, padding, base_offset, padding, checksum, then
// number_of_entries 4-byte entries, then a trailing checksum over the
// entries.
func DecodeTable(payload []byte) (*Table, error) {
	if len(payload) < tableHeaderSize {
		return nil, ewferror.IO("section.DecodeTable", ewferror.CodeRead,
			fmt.Errorf("need at least %d bytes, got %d", tableHeaderSize, len(payload)))
	}
	r := bytes.NewReader(payload)

	var numberOfEntries uint32
	var pad1 uint32
	var baseOffset uint64
	var pad2 uint32
	var headerChecksum uint32

	binary.Read(r, binary.LittleEndian, &numberOfEntries)
	binary.Read(r, binary.LittleEndian, &pad1)
	binary.Read(r, binary.LittleEndian, &baseOffset)
	binary.Read(r, binary.LittleEndian, &pad2)
	if err := binary.Read(r, binary.LittleEndian, &headerChecksum); err != nil {
		return nil, ewferror.IO("section.DecodeTable", ewferror.CodeRead, err)
	}

	headerChecksumArea := payload[:tableHeaderSize-4]
	if checksum.Adler32(checksum.Seed, headerChecksumArea) != headerChecksum {
		return nil, ewferror.Input("section.DecodeTable", ewferror.CodeChecksumMismatch,
			fmt.Errorf("table header checksum mismatch"))
	}

	need := tableHeaderSize + int(numberOfEntries)*4 + 4
	if len(payload) < need {
		return nil, ewferror.IO("section.DecodeTable", ewferror.CodeRead,
			fmt.Errorf("table section too short: need %d, have %d", need, len(payload)))
	}

	entriesRaw := payload[tableHeaderSize : tableHeaderSize+int(numberOfEntries)*4]
	trailerChecksum := binary.LittleEndian.Uint32(payload[tableHeaderSize+int(numberOfEntries)*4:])
	if checksum.Adler32(checksum.Seed, entriesRaw) != trailerChecksum {
		return nil, ewferror.Input("section.DecodeTable", ewferror.CodeChecksumMismatch,
			fmt.Errorf("table entries checksum mismatch"))
	}

	entries := make([]TableEntry, numberOfEntries)
	for i := range entries {
		raw := binary.LittleEndian.Uint32(entriesRaw[i*4:])
		entries[i] = TableEntry{
			OffsetFromBase: raw &^ TableEntryCompressed,
			Compressed:     raw&TableEntryCompressed != 0,
		}
	}

	return &Table{BaseOffset: baseOffset, Entries: entries}, nil
}

// EncodeTable renders t as a table/table2 payload, including both the
// header checksum and the entries-array trailing checksum.
func EncodeTable(t *Table) []byte {
	header := &bytes.Buffer{}
	binary.Write(header, binary.LittleEndian, uint32(len(t.Entries)))
	binary.Write(header, binary.LittleEndian, uint32(0))
	binary.Write(header, binary.LittleEndian, t.BaseOffset)
	binary.Write(header, binary.LittleEndian, uint32(0))

	headerChecksum := checksum.Adler32(checksum.Seed, header.Bytes())
	binary.Write(header, binary.LittleEndian, headerChecksum)

	entries := &bytes.Buffer{}
	for _, e := range t.Entries {
		raw := e.OffsetFromBase
		if e.Compressed {
			raw |= TableEntryCompressed
		}
		binary.Write(entries, binary.LittleEndian, raw)
	}
	entriesChecksum := checksum.Adler32(checksum.Seed, entries.Bytes())

	out := append([]byte(nil), header.Bytes()...)
	out = append(out, entries.Bytes()...)
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], entriesChecksum)
	out = append(out, trailer[:]...)
	return out
}

// ResolveChunkRange returns the on-disk offset and compressed size for
// entry i within a table whose sectors payload spans
// [sectionStart, sectionEnd) (spec §4.4: "offset of next entry minus
// offset of this entry, or section_end - offset for the last entry").
func (t *Table) ResolveChunkRange(i int, sectionEnd uint64) (offset uint64, size uint64, compressed bool) {
	e := t.Entries[i]
	offset = t.BaseOffset + uint64(e.OffsetFromBase)
	if i+1 < len(t.Entries) {
		next := t.BaseOffset + uint64(t.Entries[i+1].OffsetFromBase)
		size = next - offset
	} else {
		size = sectionEnd - offset
	}
	return offset, size, e.Compressed
}
