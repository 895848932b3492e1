// Package metadata implements the tab-separated header-values,
// device-information, and case-data string grammar (spec §4.9), and its
// UTF-16LE-with-BOM, deflate-compressed on-disk encoding.
package metadata

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/evidentiary/ewfgo/compress"
	"github.com/evidentiary/ewfgo/ewferror"
)

// Table is a parsed type/value table: line 3's tab-separated type codes
// and line 4's same-count values, in shared order (spec §4.9 grammar).
type Table struct {
	Version string // line 1, typically "1"
	Section string // line 2, typically "main"
	Codes   []string
	Values  []string
}

// Get returns the value for a type code, or "" if absent.
func (t *Table) Get(code string) string {
	for i, c := range t.Codes {
		if c == code {
			return t.Values[i]
		}
	}
	return ""
}

// Set assigns a value for a type code, appending it if not already present.
func (t *Table) Set(code, value string) {
	for i, c := range t.Codes {
		if c == code {
			t.Values[i] = value
			return
		}
	}
	t.Codes = append(t.Codes, code)
	t.Values = append(t.Values, value)
}

// GenerateUTF8 renders the grammar's UTF-8 line form:
//
//	line 1: version
//	line 2: section
//	line 3: tab-separated type codes
//	line 4: tab-separated values
func (t *Table) GenerateUTF8() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n%s\n%s\n%s\n", t.Version, t.Section,
		strings.Join(t.Codes, "\t"), strings.Join(t.Values, "\t"))
	return sb.String()
}

// ParseUTF8 parses the grammar's UTF-8 line form. It tolerates trailing
// \r (spec §4.9), and pads a short value line with empty strings so the
// code/value counts always match.
func ParseUTF8(data string) (*Table, error) {
	lines := strings.Split(data, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	if len(lines) < 4 {
		return nil, ewferror.Input("metadata.ParseUTF8", ewferror.CodeGeneric,
			fmt.Errorf("need at least 4 lines, got %d", len(lines)))
	}

	t := &Table{Version: lines[0], Section: lines[1]}
	if lines[2] != "" {
		t.Codes = strings.Split(lines[2], "\t")
	}
	if lines[3] != "" {
		t.Values = strings.Split(lines[3], "\t")
	}
	for len(t.Values) < len(t.Codes) {
		t.Values = append(t.Values, "")
	}
	if len(t.Values) > len(t.Codes) {
		t.Values = t.Values[:len(t.Codes)]
	}
	return t, nil
}

// EncodeSection renders t as the on-disk section payload: UTF-16LE with
// a byte-order mark, deflate-compressed (spec §4.9).
func EncodeSection(t *Table) ([]byte, error) {
	utf8 := t.GenerateUTF8()

	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	utf16, _, err := transform.Bytes(encoder, []byte(utf8))
	if err != nil {
		return nil, ewferror.Conversion("metadata.EncodeSection", ewferror.CodeGeneric, err)
	}

	// IgnoreBOM leaves BOM handling to us, so the single BOM this format
	// requires is prefixed explicitly (0xFFFE LE).
	withBOM := append([]byte{0xFF, 0xFE}, utf16...)

	compressed, err := compress.Compress(compress.MethodDeflate, compress.ImplStdlib, compress.LevelDefault, withBOM, 0)
	if err != nil {
		return nil, ewferror.Compression("metadata.EncodeSection", ewferror.CodeCompressFailed, err)
	}
	return compressed, nil
}

// DecodeSection reverses EncodeSection: inflate, then decode UTF-16
// (LE or BE, detected by BOM) or UTF-8 if no recognized BOM is present.
func DecodeSection(payload []byte) (*Table, error) {
	raw, err := compress.Decompress(compress.MethodDeflate, payload)
	if err != nil {
		return nil, ewferror.Compression("metadata.DecodeSection", ewferror.CodeDecompressFailed, err)
	}

	var utf8 string
	switch {
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xFE:
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, derr := transform.Bytes(decoder, raw)
		if derr != nil {
			return nil, ewferror.Conversion("metadata.DecodeSection", ewferror.CodeGeneric, derr)
		}
		utf8 = string(out)
	case len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF:
		decoder := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, _, derr := transform.Bytes(decoder, raw)
		if derr != nil {
			return nil, ewferror.Conversion("metadata.DecodeSection", ewferror.CodeGeneric, derr)
		}
		utf8 = string(out)
	default:
		utf8 = string(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))
	}

	return ParseUTF8(utf8)
}
