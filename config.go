package ewf

import (
	"log/slog"

	"github.com/evidentiary/ewfgo/chunk"
	"github.com/evidentiary/ewfgo/compress"
	"github.com/evidentiary/ewfgo/metrics"
)

// Config is an explicit, per-Handle configuration rather than
// package-level constants, so a process can open multiple acquisitions
// with different chunk sizes, compression settings, or loggers at
// once. Zero-value fields are filled in by defaultedConfig.
type Config struct {
	// BytesPerSector and ChunkSectors determine the fixed logical chunk
	// size (spec §3, "chunk_size is fixed for the life of the media").
	BytesPerSector uint32
	ChunkSectors   uint32

	CompressionMethod compress.Method
	CompressionLevel  compress.Level
	CompressionImpl   compress.Impl
	PackFlags         chunk.PackFlags

	// MaxSegmentSize bounds how many packed bytes accumulate in a
	// single segment file before a new one is started (spec §4.6).
	MaxSegmentSize uint64

	// CacheCapacity bounds the chunk table's LRU-cached unpacked chunks
	// (spec §4.5).
	CacheCapacity int

	// MaxOpenFiles bounds the backing-store pool's concurrently open
	// segment files (spec §5, "file-IO pool").
	MaxOpenFiles int

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

const (
	defaultBytesPerSector = 512
	defaultChunkSectors   = 64
	defaultMaxSegmentSize = 1500 * 1024 * 1024 // ~1.5 GiB, EnCase's historical default
	defaultCacheCapacity  = 64
	defaultMaxOpenFiles   = 16
)

func defaultedConfig(cfg Config) Config {
	if cfg.BytesPerSector == 0 {
		cfg.BytesPerSector = defaultBytesPerSector
	}
	if cfg.ChunkSectors == 0 {
		cfg.ChunkSectors = defaultChunkSectors
	}
	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = compress.LevelDefault
	}
	if cfg.MaxSegmentSize == 0 {
		cfg.MaxSegmentSize = defaultMaxSegmentSize
	}
	if cfg.CacheCapacity == 0 {
		cfg.CacheCapacity = defaultCacheCapacity
	}
	if cfg.MaxOpenFiles == 0 {
		cfg.MaxOpenFiles = defaultMaxOpenFiles
	}
	if cfg.PackFlags == 0 {
		// AddAlignmentPadding is deliberately not part of the default set:
		// Unpack has no way to distinguish trailing alignment padding from
		// a genuinely short tail chunk without also being told the
		// original content length, so the Handle only enables it when a
		// caller opts in knowing their own chunks are never the final,
		// possibly-short chunk of an acquisition.
		//
		// UseEmptyBlockCompression is also left out of the default set:
		// it needs a pre-built reference blob sized to the exact chunk
		// it's replacing, but the write path packs variable-length tail
		// chunks alongside full ones, so a single cached blob can't serve
		// every call. An all-zero chunk that pattern-fill doesn't catch
		// (length not a multiple of 8) still packs fine through ordinary
		// deflate; only a caller with a fixed chunk size and its own
		// reference blob should opt into this flag.
		cfg.PackFlags = chunk.CalculateChecksum | chunk.UsePatternFillCompression
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg
}

func (c Config) chunkSize() uint32 { return c.BytesPerSector * c.ChunkSectors }
