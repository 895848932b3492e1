package section

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/evidentiary/ewfgo/checksum"
	"github.com/evidentiary/ewfgo/ewferror"
)

// Digest is the decoded payload of a digest/hash section: MD5 and
// SHA-1 over the acquired media (spec §4.4).
type Digest struct {
	MD5  [16]byte
	SHA1 [20]byte
}

const digestPayloadSize = 16 + 20 + 40 + 4

// EncodeDigest renders a digest/hash section payload.
func EncodeDigest(d *Digest) []byte {
	buf := &bytes.Buffer{}
	buf.Write(d.MD5[:])
	buf.Write(d.SHA1[:])
	buf.Write(make([]byte, 40))
	sum := checksum.Adler32(checksum.Seed, buf.Bytes())
	binary.Write(buf, binary.LittleEndian, sum)
	return buf.Bytes()
}

// DecodeDigest parses a digest/hash section payload, verifying its
// trailing checksum.
func DecodeDigest(payload []byte) (*Digest, error) {
	if len(payload) < digestPayloadSize {
		return nil, ewferror.IO("section.DecodeDigest", ewferror.CodeRead,
			fmt.Errorf("need %d bytes, got %d", digestPayloadSize, len(payload)))
	}
	d := &Digest{}
	copy(d.MD5[:], payload[0:16])
	copy(d.SHA1[:], payload[16:36])
	sum := binary.LittleEndian.Uint32(payload[76:80])
	if checksum.Adler32(checksum.Seed, payload[:76]) != sum {
		return nil, ewferror.Input("section.DecodeDigest", ewferror.CodeChecksumMismatch,
			fmt.Errorf("digest checksum mismatch"))
	}
	return d, nil
}
