package ewf

import (
	"fmt"
	"time"

	"github.com/evidentiary/ewfgo/chunk"
	"github.com/evidentiary/ewfgo/ewferror"
)

// ReadBuffer returns length bytes of the acquired media starting at
// offset, resolving the covering chunks through the chunk table (spec
// §5, "ReadBuffer(offset, length)").
func (h *Handle) ReadBuffer(offset int64, length int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateReady {
		return nil, ewferror.Runtime("Handle.ReadBuffer", ewferror.CodeGeneric,
			fmt.Errorf("handle is %s, not ready", h.state))
	}
	if offset < 0 || length < 0 {
		return nil, ewferror.Argument("Handle.ReadBuffer", ewferror.CodeOutOfBounds,
			fmt.Errorf("negative offset or length"))
	}

	chunkSize := int64(h.cfg.chunkSize())
	out := make([]byte, 0, length)
	remaining := length
	pos := offset

	for remaining > 0 {
		idx := int(pos / chunkSize)
		within := int(pos % chunkSize)

		start := time.Now()
		data, flags, err := h.chunkTable.Get(idx)
		if h.cfg.Metrics != nil {
			h.cfg.Metrics.ObserveUnpack(time.Since(start))
		}
		if err != nil {
			return nil, err
		}
		_ = flags

		take := len(data) - within
		if take <= 0 {
			break
		}
		if take > remaining {
			take = remaining
		}
		out = append(out, data[within:within+take]...)
		remaining -= take
		pos += int64(take)
	}
	return out, nil
}

// WriteBuffer appends data to the media being acquired, packing
// complete chunks as they accumulate and rolling to a new segment file
// once MaxSegmentSize is reached (spec §5, "WriteBuffer(bytes,
// length)").
func (h *Handle) WriteBuffer(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateReady || !h.writing {
		return ewferror.Runtime("Handle.WriteBuffer", ewferror.CodeGeneric,
			fmt.Errorf("handle is not open for writing (state=%s)", h.state))
	}

	h.pendingRaw = append(h.pendingRaw, data...)
	chunkSize := int(h.cfg.chunkSize())

	for len(h.pendingRaw) >= chunkSize {
		raw := h.pendingRaw[:chunkSize]
		h.pendingRaw = h.pendingRaw[chunkSize:]
		if err := h.packAndBufferChunk(raw); err != nil {
			return err
		}
		if h.currentBytes >= h.cfg.MaxSegmentSize {
			if err := h.flushSegment(true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handle) packAndBufferChunk(raw []byte) error {
	start := time.Now()
	c, err := chunk.Pack(raw, h.cfg.chunkSize(), h.cfg.CompressionMethod, h.cfg.CompressionImpl,
		h.cfg.CompressionLevel, h.cfg.PackFlags, nil)
	if h.cfg.Metrics != nil {
		h.cfg.Metrics.ObservePack(time.Since(start))
	}
	if err != nil {
		return err
	}
	h.currentPacked = append(h.currentPacked, c.Packed)
	h.currentChunks = append(h.currentChunks, c.RangeFlags)
	h.currentBytes += uint64(len(c.Packed))
	h.totalBytes += uint64(len(raw))
	h.globalChunkIdx++
	return nil
}
