package section

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/evidentiary/ewfgo/checksum"
	"github.com/evidentiary/ewfgo/ewferror"
)

// MediaType enumerates the acquired device categories (spec §3).
type MediaType uint8

const (
	MediaRemovable   MediaType = 0x00
	MediaFixed       MediaType = 0x01
	MediaOptical     MediaType = 0x03
	MediaSingleFiles MediaType = 0x0e
	MediaMemory      MediaType = 0x10
)

// MediaFlags is a bitset of media acquisition attributes.
type MediaFlags uint8

const (
	FlagImage    MediaFlags = 0x01
	FlagPhysical MediaFlags = 0x02
	FlagFastbloc MediaFlags = 0x04
	FlagTableau  MediaFlags = 0x08
)

// MediaValues is the handle-level snapshot of the acquired device
// (spec §3, "Media values"). It is the decoded form of a volume/disk/data
// section payload.
type MediaValues struct {
	MediaType        MediaType
	MediaFlags       MediaFlags
	BytesPerSector   uint32
	NumberOfSectors  uint64
	ChunkSectors     uint32 // sectors per chunk
	SetIdentifier    [16]byte
	ErrorGranularity uint32
	CompressionLevel uint8
	NumberOfChunks   uint32
}

// MediaSize returns bytes_per_sector * number_of_sectors, or 0 when the
// size is not yet known (a streamed write still in progress).
func (m *MediaValues) MediaSize() uint64 {
	return uint64(m.BytesPerSector) * m.NumberOfSectors
}

// ChunkSize returns sectors-per-chunk * bytes-per-sector, the fixed
// logical size of every non-tail chunk.
func (m *MediaValues) ChunkSize() uint32 {
	return m.ChunkSectors * m.BytesPerSector
}

// Validate enforces the media-values invariants from spec §3.
func (m *MediaValues) Validate() error {
	if m.BytesPerSector == 0 {
		return ewferror.Argument("MediaValues.Validate", ewferror.CodeOutOfBounds,
			fmt.Errorf("bytes_per_sector must be > 0"))
	}
	if m.ChunkSectors == 0 {
		return ewferror.Argument("MediaValues.Validate", ewferror.CodeOutOfBounds,
			fmt.Errorf("chunk_size is fixed and must be > 0"))
	}
	return nil
}

// diskPayloadSize is the on-disk size of the "disk"/"data" section
// payload body (not counting the 76-byte section descriptor that
// precedes it), matching the EnCase SMART/disk layout.
const diskPayloadSize = 1052

// diskWire is the exact byte layout of a disk/data/volume(SMART) section
// payload.
type diskWire struct {
	MediaType              uint8
	_                      [3]byte
	ChunkCount             uint32
	ChunkSectors           uint32
	SectorBytes            uint32
	SectorsCount           uint64
	CHSCylinders           uint32
	CHSHeads               uint32
	CHSSectors             uint32
	MediaFlags             uint8
	_                      [3]byte
	PALMVolumeStartSector  uint32
	_                      uint32
	SMARTLogsStartSector   uint32
	CompressionLevel       uint8
	_                      [3]byte
	SectorErrorGranularity uint32
	_                      uint32
	SetIdentifier          [16]byte
	_                      [963]byte
	Signature              [5]byte
	Checksum               uint32
}

// EncodeMediaValues renders m as a disk/data-style 1052-byte payload,
// writing the trailing Adler-32 checksum over everything before it.
func EncodeMediaValues(m *MediaValues) ([]byte, error) {
	w := diskWire{
		MediaType:              uint8(m.MediaType),
		ChunkCount:             m.NumberOfChunks,
		ChunkSectors:           m.ChunkSectors,
		SectorBytes:            m.BytesPerSector,
		SectorsCount:           m.NumberOfSectors,
		MediaFlags:             uint8(m.MediaFlags),
		CompressionLevel:       m.CompressionLevel,
		SectorErrorGranularity: m.ErrorGranularity,
		SetIdentifier:          m.SetIdentifier,
	}

	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, w); err != nil {
		return nil, ewferror.IO("section.EncodeMediaValues", ewferror.CodeWrite, err)
	}
	payload := buf.Bytes()
	sum := checksum.Adler32(checksum.Seed, payload[:len(payload)-4])
	binary.LittleEndian.PutUint32(payload[len(payload)-4:], sum)
	return payload, nil
}

// DecodeMediaValues parses a disk/data/volume(SMART) section payload.
func DecodeMediaValues(payload []byte) (*MediaValues, error) {
	if len(payload) < diskPayloadSize {
		return nil, ewferror.IO("section.DecodeMediaValues", ewferror.CodeRead,
			fmt.Errorf("need %d bytes, got %d", diskPayloadSize, len(payload)))
	}
	var w diskWire
	if err := binary.Read(bytes.NewReader(payload[:diskPayloadSize]), binary.LittleEndian, &w); err != nil {
		return nil, ewferror.IO("section.DecodeMediaValues", ewferror.CodeRead, err)
	}
	sum := checksum.Adler32(checksum.Seed, payload[:diskPayloadSize-4])
	if sum != w.Checksum {
		return nil, ewferror.Input("section.DecodeMediaValues", ewferror.CodeChecksumMismatch,
			fmt.Errorf("media values checksum %#x != computed %#x", w.Checksum, sum))
	}
	return &MediaValues{
		MediaType:        MediaType(w.MediaType),
		MediaFlags:       MediaFlags(w.MediaFlags),
		BytesPerSector:   w.SectorBytes,
		NumberOfSectors:  w.SectorsCount,
		ChunkSectors:     w.ChunkSectors,
		SetIdentifier:    w.SetIdentifier,
		ErrorGranularity: w.SectorErrorGranularity,
		CompressionLevel: w.CompressionLevel,
		NumberOfChunks:   w.ChunkCount,
	}, nil
}

const DiskPayloadSize = diskPayloadSize
