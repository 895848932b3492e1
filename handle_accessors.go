package ewf

import (
	"fmt"

	"github.com/evidentiary/ewfgo/compress"
	"github.com/evidentiary/ewfgo/ewferror"
	"github.com/evidentiary/ewfgo/metadata"
	"github.com/evidentiary/ewfgo/section"
)

// GetNumberOfChunks returns the total chunk count across every
// registered segment file (spec §5).
func (h *Handle) GetNumberOfChunks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.chunkTable == nil {
		return 0
	}
	return h.chunkTable.NumberOfChunks()
}

// GetChunkSize returns the fixed logical chunk size in bytes.
func (h *Handle) GetChunkSize() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cfg.chunkSize()
}

// GetMediaSize returns bytes_per_sector * number_of_sectors.
func (h *Handle) GetMediaSize() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.media.MediaSize()
}

// MediaValues returns a copy of the handle's current media-values
// snapshot.
func (h *Handle) MediaValues() section.MediaValues {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.media
}

// SetMediaValues overwrites the handle's media-values snapshot. Valid
// only before the first WriteBuffer call on a write handle (spec §3,
// "chunk_size is fixed for the life of the media").
func (h *Handle) SetMediaValues(mv section.MediaValues) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writing && h.totalBytes > 0 {
		return ewferror.Runtime("Handle.SetMediaValues", ewferror.CodeAlreadySet,
			fmt.Errorf("media values cannot change after data has been written"))
	}
	if err := mv.Validate(); err != nil {
		return err
	}
	h.media = mv
	return nil
}

// HeaderValues returns the parsed header/header2/xheader values, or nil
// if the segment set carries none.
func (h *Handle) HeaderValues() *metadata.HeaderValues {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headerVals
}

// SetHeaderValues assigns the header values to be written into the
// first segment file at Close. Valid only on a write handle.
func (h *Handle) SetHeaderValues(v *metadata.HeaderValues) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.writing {
		return ewferror.Runtime("Handle.SetHeaderValues", ewferror.CodeGeneric,
			fmt.Errorf("handle is not open for writing"))
	}
	h.headerVals = v
	return nil
}

// CaseData returns the parsed case-data values, or nil if absent.
func (h *Handle) CaseData() *metadata.CaseData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.caseData
}

func (h *Handle) SetCaseData(c *metadata.CaseData) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.caseData = c
}

// DeviceInformation returns the parsed device-information values, or
// nil if absent.
func (h *Handle) DeviceInformation() *metadata.DeviceInformation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deviceInfo
}

func (h *Handle) SetDeviceInformation(d *metadata.DeviceInformation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deviceInfo = d
}

// Digest returns the MD5/SHA-1 hash values read from a digest/hash
// section, or nil if the segment set carries none. On a write handle it
// returns whatever SetDigest assigned: WriteBuffer computes no running
// hash, and Close neither computes a digest nor writes a digest section.
func (h *Handle) Digest() *section.Digest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.digest
}

func (h *Handle) SetDigest(d *section.Digest) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.digest = d
}

// AddSession records a session's sector range (spec §4.4, "session"
// section; optical media track/session layout).
func (h *Handle) AddSession(firstSector, numberOfSectors uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = append(h.sessions, [2]uint64{firstSector, numberOfSectors})
}

// AddTrack records a track's sector range.
func (h *Handle) AddTrack(firstSector, numberOfSectors uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tracks = append(h.tracks, [2]uint64{firstSector, numberOfSectors})
}

// AddAcquiryError records a sector range that failed to read during
// acquisition (spec §4.4, "error2" section).
func (h *Handle) AddAcquiryError(firstSector, numberOfSectors uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.acquiryErrors = append(h.acquiryErrors, [2]uint64{firstSector, numberOfSectors})
}

func (h *Handle) Sessions() [][2]uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][2]uint64(nil), h.sessions...)
}

func (h *Handle) Tracks() [][2]uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][2]uint64(nil), h.tracks...)
}

func (h *Handle) AcquiryErrors() [][2]uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][2]uint64(nil), h.acquiryErrors...)
}

// SetMaximumSegmentSize changes the byte threshold at which a write
// handle rolls to a new segment file. Valid only before any data has
// been written.
func (h *Handle) SetMaximumSegmentSize(size uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.totalBytes > 0 {
		return ewferror.Runtime("Handle.SetMaximumSegmentSize", ewferror.CodeAlreadySet,
			fmt.Errorf("maximum segment size cannot change after data has been written"))
	}
	h.cfg.MaxSegmentSize = size
	return nil
}

// SetCompressionMethodLevel changes the compressor used for chunks not
// yet packed. Valid only before any data has been written.
func (h *Handle) SetCompressionMethodLevel(method compress.Method, level compress.Level) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.totalBytes > 0 {
		return ewferror.Runtime("Handle.SetCompressionMethodLevel", ewferror.CodeAlreadySet,
			fmt.Errorf("compression method/level cannot change after data has been written"))
	}
	h.cfg.CompressionMethod = method
	h.cfg.CompressionLevel = level
	return nil
}

// State returns the handle's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}
