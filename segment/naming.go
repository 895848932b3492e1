package segment

import (
	"fmt"

	"github.com/evidentiary/ewfgo/ewferror"
)

// Family picks the extension letter family for a segment's first
// character: 'E' for EWF1/EWF2 image, 'L' for logical, 's' for EWF1
// SMART, and 'd' for delta (spec §4.6).
type Family byte

const (
	FamilyImage   Family = 'E'
	FamilyLogical Family = 'L'
	FamilyDelta   Family = 'd'
	FamilySMART   Family = 's'
)

func familyFor(k Kind) Family {
	switch k {
	case KindEWF1Logical, KindEWF2Logical:
		return FamilyLogical
	case KindEWF1Delta:
		return FamilyDelta
	case KindEWF1SMART:
		return FamilySMART
	default:
		return FamilyImage
	}
}

// maxSegments bounds the EWF1 extension sequence: 99 two-digit codes
// plus the full EAA..ZZZ three-letter rollover (spec §4.6).
const maxSegments = 99 + int('Z'-'E'+1)*26*26

// maxSegmentsEWF2 bounds the EWF2 extension sequence: 99 two-digit
// codes plus the two-letter AA..ZZ rollover that follows the fixed
// family+'x' prefix.
const maxSegmentsEWF2 = 99 + 26*26

// Extension renders the 3-character EWF1 extension (E01-E99, then the
// EAA-ZZZ base-26 rollover) or the 4-character EWF2 extension (Ex01,
// then ExAA-ExZZ) for segment index (1-based) of a kind (spec §4.6).
func Extension(k Kind, index int) (string, error) {
	if index < 1 {
		return "", ewferror.Argument("segment.Extension", ewferror.CodeOutOfBounds,
			fmt.Errorf("segment index must be >= 1, got %d", index))
	}
	family := familyFor(k)

	if index <= 99 {
		decimal := fmt.Sprintf("%02d", index)
		if k.IsEWF2() {
			return fmt.Sprintf("%cx%s", family, decimal), nil
		}
		return fmt.Sprintf("%c%s", family, decimal), nil
	}

	if k.IsEWF2() {
		letters, err := letterPair(index)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%cx%s", family, letters), nil
	}

	// The whole 3-character extension is itself the base-26 counter:
	// the family letter occupies the first digit and rolls EAA..EZZ,
	// FAA..FZZ, and on through ZZZ as index grows past a single
	// family's 676 combinations. There is no separate family prefix
	// here - prepending one on top of this would make a 4-character
	// extension, which is not a valid EWF1 name.
	return letterTriple(family, index)
}

// letterTriple renders the 3-character base-26 counter EWF1 uses for
// index > 99, seeded so index 100 is "<family>AA" and case follows the
// family letter's case.
func letterTriple(family Family, index int) (string, error) {
	if index > maxSegments {
		return "", ewferror.Argument("segment.letterTriple", ewferror.CodeOutOfBounds,
			fmt.Errorf("segment index %d exceeds maximum %d", index, maxSegments))
	}
	upper := family
	lower := upper >= 'a' && upper <= 'z'
	if lower {
		upper -= 'a' - 'A'
	}
	n := int(upper-'A')*26*26 + (index - 100)
	if n >= 26*26*26 {
		return "", ewferror.Argument("segment.letterTriple", ewferror.CodeOutOfBounds,
			fmt.Errorf("segment index %d runs past ZZZ for family %c", index, family))
	}
	letters := make([]byte, 3)
	for i := 2; i >= 0; i-- {
		letters[i] = byte('A' + n%26)
		n /= 26
	}
	if lower {
		for i := range letters {
			letters[i] += 'a' - 'A'
		}
	}
	return string(letters), nil
}

// letterPair renders the 2-character base-26 counter EWF2 uses after
// its fixed family+'x' prefix, seeded so index 100 is "AA".
func letterPair(index int) (string, error) {
	if index > maxSegmentsEWF2 {
		return "", ewferror.Argument("segment.letterPair", ewferror.CodeOutOfBounds,
			fmt.Errorf("segment index %d exceeds maximum %d", index, maxSegmentsEWF2))
	}
	n := index - 100
	letters := make([]byte, 2)
	for i := 1; i >= 0; i-- {
		letters[i] = byte('A' + n%26)
		n /= 26
	}
	return string(letters), nil
}

// SegmentName renders the on-disk file name for a segment set base name
// and index, e.g. SegmentName("case", KindEWF1, 1) == "case.E01".
func SegmentName(base string, k Kind, index int) (string, error) {
	ext, err := Extension(k, index)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s", base, ext), nil
}

// Glob enumerates a segment set's file names in order starting at
// index 1, calling exists to probe each candidate, and stopping at the
// first missing index (spec §4.6, "Glob enumeration until file
// missing"). It returns the names of every segment file found.
func Glob(base string, k Kind, exists func(name string) bool) ([]string, error) {
	limit := maxSegments
	if k.IsEWF2() {
		limit = maxSegmentsEWF2
	}
	var names []string
	for i := 1; i <= limit; i++ {
		name, err := SegmentName(base, k, i)
		if err != nil {
			return nil, err
		}
		if !exists(name) {
			break
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, ewferror.Input("segment.Glob", ewferror.CodeMissing,
			fmt.Errorf("no segment files found for base %q", base))
	}
	return names, nil
}
