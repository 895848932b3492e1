// Package chunk implements the per-chunk pack/unpack pipeline: the
// checksum-or-compress transform between an in-memory raw chunk and its
// on-disk form, including the pattern-fill and empty-block shortcuts
// (spec §4.3).
package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/evidentiary/ewfgo/checksum"
	"github.com/evidentiary/ewfgo/compress"
	"github.com/evidentiary/ewfgo/ewferror"
)

// RangeFlags records how a chunk's packed form is laid out on disk.
type RangeFlags uint32

const (
	IsPacked RangeFlags = 1 << iota
	IsCompressed
	HasChecksum
	UsesPatternFill
	IsCorrupted
	IsDelta
)

func (f RangeFlags) Has(bit RangeFlags) bool { return f&bit != 0 }

// PackFlags selects which shortcuts and post-processing Pack applies.
type PackFlags uint32

const (
	CalculateChecksum PackFlags = 1 << iota
	ForceCompression
	UseEmptyBlockCompression
	UsePatternFillCompression
	AddAlignmentPadding
)

func (f PackFlags) Has(bit PackFlags) bool { return f&bit != 0 }

// Chunk is one packed chunk, ready to append to a sectors/table section
// pair, or read back from one.
type Chunk struct {
	Packed      []byte
	RangeFlags  RangeFlags
	PaddingSize uint8
	// ChecksumOutOfBand is set when Packed could not hold the trailing
	// checksum and the caller must store it beside the chunk instead
	// (spec §4.3 step 4, "out-of-band flag").
	ChecksumOutOfBand bool
	OutOfBandChecksum uint32
}

const alignment = 16

// Pack transforms an unpacked chunk (exactly chunkSize bytes, or shorter
// for the final tail chunk) into its on-disk form.
//
// method/impl/level select the compressor used when neither shortcut
// applies or FORCE_COMPRESSION is requested. emptyBlockBlob is the
// pre-supplied compressed representation of a chunkSize run of zero
// bytes; it is required whenever UseEmptyBlockCompression is set.
func Pack(data []byte, chunkSize uint32, method compress.Method, impl compress.Impl, level compress.Level, flags PackFlags, emptyBlockBlob []byte) (*Chunk, error) {
	if len(data) == 0 {
		return nil, ewferror.Argument("chunk.Pack", ewferror.CodeOutOfBounds, fmt.Errorf("empty chunk"))
	}

	if flags.Has(UsePatternFillCompression) && len(data)%8 == 0 {
		if pattern, ok := check64BitPatternFill(data); ok {
			packed := make([]byte, 8)
			binary.LittleEndian.PutUint64(packed, pattern)
			c := &Chunk{Packed: packed, RangeFlags: IsCompressed | UsesPatternFill}
			return finishPack(c, flags)
		}
	}

	if flags.Has(UseEmptyBlockCompression) && len(data) > 0 && data[0] == 0x00 && isUniform(data) {
		if emptyBlockBlob == nil {
			return nil, ewferror.Argument("chunk.Pack", ewferror.CodeMissing,
				fmt.Errorf("empty-block compression requested without a reference blob"))
		}
		c := &Chunk{Packed: append([]byte(nil), emptyBlockBlob...), RangeFlags: IsCompressed}
		return finishPack(c, flags)
	}

	if level != compress.LevelNone || flags.Has(ForceCompression) {
		dstCap := 0
		if flags.Has(ForceCompression) {
			// With no uncompressed fallback allowed, the compressed form
			// must fit in the space the raw chunk would have occupied;
			// exceeding it is a hard contract violation (spec §4.3).
			dstCap = len(data)
		}
		compressed, err := compress.Compress(method, impl, level, data, dstCap)
		if err != nil {
			if flags.Has(ForceCompression) {
				return nil, ewferror.Compression("chunk.Pack", ewferror.CodeTooSmall,
					fmt.Errorf("FORCE_COMPRESSION set and compressed output exceeds chunk size: %w", err))
			}
			return packUncompressed(data, flags)
		}
		if len(compressed) < len(data) || flags.Has(ForceCompression) {
			c := &Chunk{Packed: compressed, RangeFlags: IsCompressed}
			return finishPack(c, flags)
		}
	}

	return packUncompressed(data, flags)
}

func packUncompressed(data []byte, flags PackFlags) (*Chunk, error) {
	c := &Chunk{Packed: append([]byte(nil), data...)}
	if flags.Has(CalculateChecksum) {
		sum := checksum.Adler32(checksum.Seed, data)
		var sumBytes [4]byte
		binary.LittleEndian.PutUint32(sumBytes[:], sum)

		// spec §4.3 step 4: append the checksum in-band; if the caller's
		// buffer convention can't grow (signaled by flags lacking room),
		// an out-of-band checksum is used instead. This engine always
		// owns its own growable buffer, so the in-band path is taken;
		// ChecksumOutOfBand exists for callers that hand Pack a
		// fixed-capacity destination (see PackInto).
		c.Packed = append(c.Packed, sumBytes[:]...)
		c.RangeFlags = HasChecksum
		c.OutOfBandChecksum = sum
	}
	return finishPack(c, flags)
}

// PackInto behaves like Pack but additionally enforces a maximum output
// capacity (e.g. a segment file's remaining space). If appending the
// checksum would overflow dstCap, the checksum is reported out-of-band
// instead of failing (spec §4.3, "set an out-of-band flag").
func PackInto(data []byte, chunkSize uint32, method compress.Method, impl compress.Impl, level compress.Level, flags PackFlags, emptyBlockBlob []byte, dstCap int) (*Chunk, error) {
	c, err := Pack(data, chunkSize, method, impl, level, flags, emptyBlockBlob)
	if err != nil {
		return nil, err
	}
	if dstCap > 0 && len(c.Packed) > dstCap && c.RangeFlags.Has(HasChecksum) {
		c.Packed = c.Packed[:len(c.Packed)-4]
		c.ChecksumOutOfBand = true
	}
	return c, nil
}

func finishPack(c *Chunk, flags PackFlags) (*Chunk, error) {
	c.RangeFlags |= IsPacked
	if flags.Has(AddAlignmentPadding) {
		rem := len(c.Packed) % alignment
		if rem != 0 {
			pad := alignment - rem
			c.Packed = append(c.Packed, make([]byte, pad)...)
			c.PaddingSize = uint8(pad)
		}
	}
	return c, nil
}

// Unpack reverses Pack. chunkSize is the logical (unpacked) size the
// caller expects; for USES_PATTERN_FILL chunks this is the length to
// broadcast the 8-byte pattern to. On checksum mismatch or decompress
// failure, Unpack returns (zeros, IsCorrupted, nil) rather than an
// error — corruption is a chunk-level flag, not a stream failure
// (spec §4.3, §7).
func Unpack(packed []byte, chunkSize uint32, method compress.Method, rangeFlags RangeFlags, outOfBandChecksum uint32, hasOutOfBand bool) ([]byte, RangeFlags, error) {
	switch {
	case rangeFlags.Has(IsCompressed) && rangeFlags.Has(UsesPatternFill):
		if len(packed) < 8 {
			return zeros(chunkSize), rangeFlags | IsCorrupted, nil
		}
		pattern := packed[:8]
		out := make([]byte, chunkSize)
		for i := 0; i < len(out); i += 8 {
			n := copy(out[i:], pattern)
			_ = n
		}
		return out, rangeFlags &^ IsCorrupted, nil

	case rangeFlags.Has(IsCompressed):
		out, err := compress.Decompress(method, packed)
		if err != nil {
			return zeros(chunkSize), rangeFlags | IsCorrupted, nil
		}
		return out, rangeFlags &^ IsCorrupted, nil

	case rangeFlags.Has(HasChecksum):
		var stored uint32
		var payload []byte
		if hasOutOfBand {
			stored = outOfBandChecksum
			payload = packed
		} else {
			if len(packed) < 4 {
				return zeros(chunkSize), rangeFlags | IsCorrupted, nil
			}
			payload = packed[:len(packed)-4]
			stored = binary.LittleEndian.Uint32(packed[len(packed)-4:])
		}
		computed := checksum.Adler32(checksum.Seed, payload)
		if computed != stored {
			return zeros(chunkSize), rangeFlags | IsCorrupted, nil
		}
		return append([]byte(nil), payload...), rangeFlags &^ IsCorrupted, nil

	default:
		// Neither compressed nor checksummed: the stored bytes are the
		// chunk verbatim (delta segment files may carry bare chunks).
		return append([]byte(nil), packed...), rangeFlags, nil
	}
}

func zeros(n uint32) []byte { return make([]byte, n) }

// check64BitPatternFill tests whether data is an integral number of
// repetitions of its first 8 bytes, returning that 8-byte pattern as a
// little-endian uint64 (spec §4.3, "Uniformity test"). Grounded on
// libewf_chunk_data_check_for_64_bit_pattern_fill's aligned compare:
// this port uses index-based word reads (encoding/binary) rather than
// pointer alignment tricks, since Go slices don't guarantee the pointer
// alignment that technique relies on.
func check64BitPatternFill(data []byte) (uint64, bool) {
	if len(data)%8 != 0 {
		return 0, false
	}
	pattern := binary.LittleEndian.Uint64(data[:8])
	for i := 8; i < len(data); i += 8 {
		if binary.LittleEndian.Uint64(data[i:i+8]) != pattern {
			return 0, false
		}
	}
	return pattern, true
}

// isUniform reports whether every byte in data equals data[0], used by
// the empty-block shortcut (data[0] == 0x00 is checked by the caller).
func isUniform(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	first := data[0]
	i := 0
	for ; i+8 <= len(data); i += 8 {
		word := data[i : i+8]
		for _, b := range word {
			if b != first {
				return false
			}
		}
	}
	for ; i < len(data); i++ {
		if data[i] != first {
			return false
		}
	}
	return true
}
