package metadata

// headerValueCodes is the EnCase header/header2/xheader line-3 schema:
// c n a e t av ov m u p r.
var headerValueCodes = []string{"c", "n", "a", "e", "t", "av", "ov", "m", "u", "p", "r"}

// HeaderValues is the decoded header/header2/xheader payload: case
// metadata plus acquisition software version/platform and the
// compression level used, carried once per segment file set.
type HeaderValues struct {
	CaseNumber        string // c
	EvidenceNumber    string // n
	UniqueDescription string // a
	ExaminerName      string // e
	Notes             string // t
	Version           string // av
	Platform          string // ov
	AcquisitionDate   string // m
	SystemDate        string // u
	PasswordHash      string // p
	CompressionLevel  string // r
}

func (h *HeaderValues) Generate() *Table {
	t := &Table{Version: "1", Section: "main", Codes: append([]string(nil), headerValueCodes...)}
	t.Values = make([]string, len(headerValueCodes))
	t.Set("c", h.CaseNumber)
	t.Set("n", h.EvidenceNumber)
	t.Set("a", h.UniqueDescription)
	t.Set("e", h.ExaminerName)
	t.Set("t", h.Notes)
	t.Set("av", h.Version)
	t.Set("ov", h.Platform)
	t.Set("m", h.AcquisitionDate)
	t.Set("u", h.SystemDate)
	t.Set("p", h.PasswordHash)
	t.Set("r", h.CompressionLevel)
	return t
}

func ParseHeaderValues(t *Table) *HeaderValues {
	return &HeaderValues{
		CaseNumber:        t.Get("c"),
		EvidenceNumber:    t.Get("n"),
		UniqueDescription: t.Get("a"),
		ExaminerName:      t.Get("e"),
		Notes:             t.Get("t"),
		Version:           t.Get("av"),
		Platform:          t.Get("ov"),
		AcquisitionDate:   t.Get("m"),
		SystemDate:        t.Get("u"),
		PasswordHash:      t.Get("p"),
		CompressionLevel:  t.Get("r"),
	}
}
