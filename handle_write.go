package ewf

import (
	"bytes"

	"github.com/evidentiary/ewfgo/chunk"
	"github.com/evidentiary/ewfgo/ewferror"
	"github.com/evidentiary/ewfgo/section"
	"github.com/evidentiary/ewfgo/segment"
)

// flushSegment finalizes the currently-buffered segment file: it writes
// the header (first segment only), media-values, sectors, and table
// sections, then a "next" or "done" terminator depending on moreComing,
// and resets the in-memory buffers for the next segment (spec §4.6,
// §5).
func (h *Handle) flushSegment(moreComing bool) error {
	if len(h.currentPacked) == 0 && h.segmentIndex > 0 {
		return nil
	}
	h.segmentIndex++

	name, err := segment.SegmentName(h.basePath, h.kind, h.segmentIndex)
	if err != nil {
		return err
	}
	bh, err := h.opener.Create(name)
	if err != nil {
		return ewferror.IO("Handle.flushSegment", ewferror.CodeOpen, err)
	}

	f, err := segment.CreateWrite(name, bh, h.kind, uint16(h.segmentIndex), uint16(h.cfg.CompressionMethod), h.setIdentifier)
	if err != nil {
		return err
	}

	if h.segmentIndex == 1 && h.headerVals != nil {
		tbl := h.headerVals.Generate()
		payload, err := section.EncodeHeaderPayload(tbl)
		if err != nil {
			return err
		}
		next := f.NextSectionOffset() + uint64(section.DescriptorSize+len(payload))
		if _, err := f.AppendSection(section.TypeHeader, payload, next); err != nil {
			return err
		}
	}

	h.media.NumberOfChunks = uint32(len(h.currentPacked))
	mediaPayload, err := section.EncodeMediaValues(&h.media)
	if err != nil {
		return err
	}
	mediaNext := f.NextSectionOffset() + uint64(section.DescriptorSize+len(mediaPayload))
	if _, err := f.AppendSection(section.TypeData, mediaPayload, mediaNext); err != nil {
		return err
	}

	sectorsPayload := bytes.Join(h.currentPacked, nil)
	sectorsOffset := f.NextSectionOffset()
	sectorsNext := sectorsOffset + uint64(section.DescriptorSize+len(sectorsPayload))
	if _, err := f.AppendSection(section.TypeSectors, sectorsPayload, sectorsNext); err != nil {
		return err
	}
	sectorsDataStart := sectorsOffset + section.DescriptorSize

	tbl := &section.Table{BaseOffset: sectorsDataStart}
	runningOffset := uint32(0)
	for i, packed := range h.currentPacked {
		tbl.Entries = append(tbl.Entries, section.TableEntry{
			OffsetFromBase: runningOffset,
			Compressed:     h.currentChunks[i].Has(chunk.IsCompressed),
		})
		runningOffset += uint32(len(packed))
	}
	tablePayload := section.EncodeTable(tbl)
	tableNext := f.NextSectionOffset() + uint64(section.DescriptorSize+len(tablePayload))
	if _, err := f.AppendSection(section.TypeTable, tablePayload, tableNext); err != nil {
		return err
	}

	termOffset := f.NextSectionOffset()
	termType := section.TypeDone
	if moreComing {
		termType = section.TypeNext
	}
	if _, err := f.AppendSection(termType, nil, termOffset); err != nil {
		return err
	}

	// The terminator's own next_offset is self-referential once its
	// true final position is known; Correct() re-patches every section
	// descriptor in place rather than shifting any offsets, exercising
	// the write-close sections-correction pass even though this
	// buffered writer already knew every size up front (spec §5).
	if err := f.Correct(); err != nil {
		return err
	}

	h.currentFile = f
	h.writtenFiles = append(h.writtenFiles, f)
	h.currentPacked = nil
	h.currentChunks = nil
	h.currentBytes = 0
	return nil
}

// Close flushes any remaining buffered chunk data, finalizes the last
// segment file, and transitions the Handle to CLOSED (spec §5,
// write-close).
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateClosed {
		return nil
	}
	h.state = StateClosing

	if h.writing {
		if len(h.pendingRaw) > 0 {
			if err := h.packAndBufferChunk(h.pendingRaw); err != nil {
				return err
			}
			h.pendingRaw = nil
		}
		h.media.NumberOfSectors = h.totalBytes / uint64(h.cfg.BytesPerSector)
		if err := h.flushSegment(false); err != nil {
			return err
		}
	}

	for _, f := range h.writtenFiles {
		if err := f.Close(); err != nil {
			h.state = StateClosed
			return ewferror.IO("Handle.Close", ewferror.CodeClose, err)
		}
	}
	if h.pool != nil {
		if err := h.pool.CloseAll(); err != nil {
			h.state = StateClosed
			return ewferror.IO("Handle.Close", ewferror.CodeClose, err)
		}
	}
	h.state = StateClosed
	h.log.Info("ewf: segment set closed", "base", h.basePath, "bytes_written", h.totalBytes)
	return nil
}
