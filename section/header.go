package section

import "github.com/evidentiary/ewfgo/metadata"

// EncodeHeaderPayload and DecodeHeaderPayload wrap metadata.EncodeSection
// /DecodeSection for the header/header2/xheader section types, which all
// share the same on-disk grammar (spec §4.9) and differ only in which
// EWF lineage writes them.
func EncodeHeaderPayload(t *metadata.Table) ([]byte, error) { return metadata.EncodeSection(t) }
func DecodeHeaderPayload(payload []byte) (*metadata.Table, error) {
	return metadata.DecodeSection(payload)
}
