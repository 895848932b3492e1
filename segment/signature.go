// Package segment implements the segment-file container: its fixed
// signature and fields header, its ordered section chain, and the
// cross-file segment table naming/extension rules (spec §4.5, §4.6).
package segment

import (
	"fmt"

	"github.com/evidentiary/ewfgo/ewferror"
)

// Kind identifies which EWF lineage/variant a segment file belongs to
// (spec §3, "Segment file... type").
type Kind int

const (
	KindEWF1 Kind = iota
	KindEWF1Logical
	KindEWF1SMART
	KindEWF1Delta
	KindEWF2
	KindEWF2Logical
)

// Signature is the 8-byte magic identifying a segment file's kind
// (spec §6).
type Signature [8]byte

var (
	SignatureEWF1        = Signature{0x45, 0x56, 0x46, 0x09, 0x0D, 0x0A, 0xFF, 0x00}
	SignatureEWF1Logical = Signature{0x4C, 0x56, 0x46, 0x09, 0x0D, 0x0A, 0xFF, 0x00}
	SignatureEWF1Delta   = Signature{0x44, 0x56, 0x46, 0x09, 0x0D, 0x0A, 0xFF, 0x00}
	SignatureEWF2        = Signature{0x45, 0x56, 0x46, 0x32, 0x0D, 0x0A, 0x81, 0x00}
	SignatureEWF2Logical = Signature{0x4C, 0x45, 0x46, 0x32, 0x0D, 0x0A, 0x81, 0x00}
)

// signatureKinds lists every recognized signature so OpenRead can identify
// a file's Kind without the caller asserting it up front. EWF1 SMART
// shares EWF1's image signature; the two differ only in which sections
// a writer emits, so SMART is not separately keyed here.
var signatureKinds = map[Signature]Kind{
	SignatureEWF1:        KindEWF1,
	SignatureEWF1Logical: KindEWF1Logical,
	SignatureEWF1Delta:   KindEWF1Delta,
	SignatureEWF2:        KindEWF2,
	SignatureEWF2Logical: KindEWF2Logical,
}

// IdentifySignature maps an 8-byte on-disk signature to its Kind. A
// signature mismatch on the first segment file of a set aborts open
// with INPUT/signature_mismatch (spec §7).
func IdentifySignature(sig [8]byte) (Kind, error) {
	k, ok := signatureKinds[Signature(sig)]
	if !ok {
		return 0, ewferror.Input("segment.IdentifySignature", ewferror.CodeSignatureMismatch,
			fmt.Errorf("unrecognized segment file signature % x", sig))
	}
	return k, nil
}

// SignatureFor returns the on-disk signature bytes for a Kind.
func SignatureFor(k Kind) Signature {
	switch k {
	case KindEWF1Logical:
		return SignatureEWF1Logical
	case KindEWF1Delta:
		return SignatureEWF1Delta
	case KindEWF2:
		return SignatureEWF2
	case KindEWF2Logical:
		return SignatureEWF2Logical
	default:
		return SignatureEWF1
	}
}

func (k Kind) IsEWF2() bool {
	return k == KindEWF2 || k == KindEWF2Logical
}
