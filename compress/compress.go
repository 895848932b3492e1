// Package compress implements the Deflate (zlib-wrapped) compression
// path EWF chunks use, plus an optional Bzip2 decode-only hook and a
// pluggable faster Deflate backend (spec §4.2).
package compress

import (
	"bytes"
	"compress/bzip2"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"

	kzlib "github.com/klauspost/compress/zlib"

	"github.com/evidentiary/ewfgo/ewferror"
)

// Method identifies the wire compression scheme.
type Method int

const (
	MethodDeflate Method = iota
	MethodBzip2
)

// Level mirrors libewf's compression_level enum; the numeric values are
// the flate levels they map onto, except that Compress runs LevelNone
// (reached only under FORCE_COMPRESSION) at LevelDefault.
type Level int

const (
	LevelNone    Level = flate.NoCompression
	LevelFast    Level = flate.BestSpeed // 1
	LevelDefault Level = 6
	LevelBest    Level = flate.BestCompression // 9
)

// Impl selects which zlib-compatible encoder backs MethodDeflate.
// Stdlib is the safe default; Klauspost is wired in for the bulk
// "sectors" write path where its faster Deflate implementation pays
// off (see SPEC_FULL.md §10).
type Impl int

const (
	ImplStdlib Impl = iota
	ImplKlauspost
)

// ErrTooSmall is returned by Compress when dst cannot hold the
// compressed stream. The chunk codec stores the chunk uncompressed
// after this (as after any compression error), per spec §4.3 step 3,
// except under FORCE_COMPRESSION, where it is a hard error.
var ErrTooSmall = ewferror.Compression("compress.Compress", ewferror.CodeTooSmall, nil)

// Compress deflates src at the given level into a buffer no larger than
// dstCap bytes. If the compressed stream would exceed dstCap, it returns
// ErrTooSmall rather than a partial buffer.
func Compress(method Method, impl Impl, level Level, src []byte, dstCap int) ([]byte, error) {
	switch method {
	case MethodDeflate:
		return compressDeflate(impl, level, src, dstCap)
	case MethodBzip2:
		return nil, ewferror.Compression("compress.Compress", ewferror.CodeUnsupportedValue,
			fmt.Errorf("bzip2 compression is a documented extension point, not implemented"))
	default:
		return nil, ewferror.Argument("compress.Compress", ewferror.CodeUnsupportedValue,
			fmt.Errorf("unknown compression method %d", method))
	}
}

func compressDeflate(impl Impl, level Level, src []byte, dstCap int) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch impl {
	case ImplKlauspost:
		w, err = kzlib.NewWriterLevel(&buf, int(clampLevel(level)))
	default:
		w, err = zlib.NewWriterLevel(&buf, int(clampLevel(level)))
	}
	if err != nil {
		return nil, ewferror.Compression("compress.Compress", ewferror.CodeCompressFailed, err)
	}

	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, ewferror.Compression("compress.Compress", ewferror.CodeCompressFailed, err)
	}
	if err := w.Close(); err != nil {
		return nil, ewferror.Compression("compress.Compress", ewferror.CodeCompressFailed, err)
	}

	if dstCap > 0 && buf.Len() > dstCap {
		return nil, ErrTooSmall
	}
	return buf.Bytes(), nil
}

func clampLevel(level Level) Level {
	if level == LevelNone {
		return LevelDefault
	}
	return level
}

// Decompress reverses Compress. The decoder's reported length is
// authoritative for the chunk's data_size (spec §4.3, unpack contract).
func Decompress(method Method, src []byte) ([]byte, error) {
	switch method {
	case MethodDeflate:
		r, err := zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, ewferror.Compression("compress.Decompress", ewferror.CodeDecompressFailed, err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, ewferror.Compression("compress.Decompress", ewferror.CodeDecompressFailed, err)
		}
		return out, nil
	case MethodBzip2:
		r := bzip2.NewReader(bytes.NewReader(src))
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, ewferror.Compression("compress.Decompress", ewferror.CodeDecompressFailed, err)
		}
		return out, nil
	default:
		return nil, ewferror.Argument("compress.Decompress", ewferror.CodeUnsupportedValue,
			fmt.Errorf("unknown compression method %d", method))
	}
}
