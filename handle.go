// Package ewf implements the top-level Expert Witness Compression
// Format read/write engine: the Handle state machine that ties the
// segment, section, chunk, and metadata layers together into a single
// acquired-evidence API (spec §5).
package ewf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/evidentiary/ewfgo/bfio"
	"github.com/evidentiary/ewfgo/chunk"
	"github.com/evidentiary/ewfgo/chunktable"
	"github.com/evidentiary/ewfgo/ewferror"
	"github.com/evidentiary/ewfgo/metadata"
	"github.com/evidentiary/ewfgo/section"
	"github.com/evidentiary/ewfgo/segment"
)

// State is the Handle lifecycle (spec §5: "NEW -> open_read/open_write
// /open_resume -> READY -> CLOSING -> CLOSED").
type State int

const (
	StateNew State = iota
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Opener resolves segment-file names to backing stores, abstracting
// over the real filesystem in production and an in-memory fixture in
// tests (spec §5, "file-IO pool"; REDESIGN FLAGS: capability object
// instead of libewf's bfio function-pointer registration).
type Opener interface {
	Exists(name string) bool
	Create(name string) (bfio.Handle, error)
	Open(name string) (bfio.Handle, error)
}

// Handle is the engine's single stateful object: one open segment set,
// either being read or written, never both.
type Handle struct {
	mu    sync.Mutex
	state State
	cfg   Config

	basePath string
	kind     segment.Kind
	opener   Opener
	pool     *bfio.Pool

	media         section.MediaValues
	headerVals    *metadata.HeaderValues
	caseData      *metadata.CaseData
	deviceInfo    *metadata.DeviceInformation
	digest        *section.Digest
	setIdentifier [16]byte

	sessions      [][2]uint64 // [firstSector, numberOfSectors)
	tracks        [][2]uint64
	acquiryErrors [][2]uint64 // [firstSector, numberOfSectors)

	chunkTable *chunktable.Table

	// write-path state
	writing        bool
	segmentIndex   int
	writtenFiles   []*segment.File
	currentFile    *segment.File
	currentChunks  []chunk.RangeFlags
	currentPacked  [][]byte
	currentBytes   uint64
	pendingRaw     []byte
	totalBytes     uint64
	globalChunkIdx int

	log *slog.Logger
}

// Create begins a new segment set at basePath (e.g. "/evidence/case")
// for writing (spec §5, open_write). Segment files are named
// basePath+"."+extension by opener.
func Create(basePath string, kind segment.Kind, opener Opener, cfg Config) (*Handle, error) {
	cfg = defaultedConfig(cfg)
	h := &Handle{
		basePath: basePath,
		kind:     kind,
		opener:   opener,
		cfg:      cfg,
		writing:  true,
		log:      cfg.Logger,
	}
	h.media = section.MediaValues{
		BytesPerSector:   cfg.BytesPerSector,
		ChunkSectors:     cfg.ChunkSectors,
		CompressionLevel: uint8(cfg.CompressionLevel),
	}
	// set_identifier ties every segment file of one acquisition together
	// (spec §6, EWF2 fields header); generated once and reused for every
	// segment this Handle writes.
	h.setIdentifier = [16]byte(uuid.New())
	h.chunkTable = chunktable.New(cfg.chunkSize(), cfg.CompressionMethod, cfg.CacheCapacity)
	if cfg.Metrics != nil {
		h.chunkTable.OnHit = cfg.Metrics.CacheHit
		h.chunkTable.OnMiss = cfg.Metrics.CacheMiss
	}
	h.state = StateReady
	h.log.Info("ewf: segment set opened for writing", "base", basePath)
	return h, nil
}

// Open resolves and reads an existing segment set starting at basePath
// (spec §5, open_read): it globs segment files, parses each one's
// section chain, and registers every table section into the chunk
// table.
func Open(basePath string, opener Opener, cfg Config) (*Handle, error) {
	cfg = defaultedConfig(cfg)
	h := &Handle{basePath: basePath, opener: opener, cfg: cfg, log: cfg.Logger}

	names, err := probeKinds(basePath, opener)
	if err != nil {
		return nil, err
	}

	h.chunkTable = chunktable.New(cfg.chunkSize(), cfg.CompressionMethod, cfg.CacheCapacity)
	if cfg.Metrics != nil {
		h.chunkTable.OnHit = cfg.Metrics.CacheHit
		h.chunkTable.OnMiss = cfg.Metrics.CacheMiss
	}
	h.pool = bfio.NewPool(cfg.MaxOpenFiles, opener.Open)

	// Each segment file's section chain is independent to parse; an
	// errgroup fans that out instead of walking the glob sequentially
	// (spec §5, open_read). Ingestion below stays sequential because
	// global chunk numbering and the first-segment Kind/set_identifier
	// depend on glob order.
	files := make([]*segment.File, len(names))
	g, ctx := errgroup.WithContext(context.Background())
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if _, err := h.pool.Get(name); err != nil {
				return ewferror.IO("ewf.Open", ewferror.CodeOpen, err)
			}
			pooled := bfio.NewPooledHandle(h.pool, name)
			f, err := segment.OpenRead(name, pooled)
			if err != nil {
				return fmt.Errorf("ewf.Open: %w", err)
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	globalChunk := 0
	for i, f := range files {
		if i == 0 {
			h.kind = f.Kind
			h.setIdentifier = f.Fields.SetIdentifier
		}
		if err := h.ingestSections(f, &globalChunk); err != nil {
			return nil, err
		}
	}

	if err := h.media.Validate(); err != nil {
		return nil, err
	}
	h.state = StateReady
	h.log.Info("ewf: segment set opened for reading", "base", basePath, "segments", len(names))
	return h, nil
}

// probeKinds tries the EWF1, EWF2, EWF1/EWF2 logical, and EWF1 delta
// naming schemes, in that order, against opener and returns the first
// one that resolves at least one segment file (spec §4.6, "Glob
// enumeration"). SMART ("s01") extensions are not probed.
func probeKinds(basePath string, opener Opener) ([]string, error) {
	kinds := []segment.Kind{segment.KindEWF1, segment.KindEWF2, segment.KindEWF1Logical, segment.KindEWF2Logical, segment.KindEWF1Delta}
	var lastErr error
	for _, k := range kinds {
		names, err := segment.Glob(basePath, k, opener.Exists)
		if err == nil {
			return names, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// ingestSections walks f's already-parsed section chain, updating the
// Handle's media/header/case/digest state and registering any
// table/table2 section into the chunk table.
func (h *Handle) ingestSections(f *segment.File, globalChunk *int) error {
	var tablePayload, table2Payload []byte
	var sectorsEnd uint64

	// registerTable adds the pending table (table2 as fallback) covering
	// the most recent sectors section.
	registerTable := func() error {
		if tablePayload == nil {
			return nil
		}
		tbl, err := chunktable.DecodeWithFallback(tablePayload, table2Payload)
		if err != nil {
			return err
		}
		h.chunkTable.AddSegment(*globalChunk, tbl, sectorsEnd, f.Backing())
		*globalChunk += len(tbl.Entries)
		tablePayload, table2Payload = nil, nil
		return nil
	}

	for _, s := range f.Sections {
		h.log.Debug("ewf: section", "segment", f.Name, "type", s.Descriptor.TypeString(), "offset", s.Offset, "size", s.Descriptor.Size)
		switch s.Descriptor.TypeString() {
		case section.TypeHeader, section.TypeHeader2, section.TypeXHeader:
			t, err := section.DecodeHeaderPayload(s.Payload)
			if err != nil {
				return err
			}
			h.headerVals = metadata.ParseHeaderValues(t)
		case section.TypeVolume, section.TypeDisk, section.TypeData:
			mv, err := section.DecodeMediaValues(s.Payload)
			if err != nil {
				return err
			}
			h.media = *mv
		case section.TypeSectors:
			if err := registerTable(); err != nil {
				return err
			}
			sectorsEnd = s.Offset + s.Descriptor.Size
		case section.TypeTable:
			tablePayload = s.Payload
		case section.TypeTable2:
			table2Payload = s.Payload
		case section.TypeDigest, section.TypeHash, section.TypeXHash:
			d, err := section.DecodeDigest(s.Payload)
			if err == nil {
				h.digest = d
			}
		}
	}

	return registerTable()
}
