package metadata

// caseDataCodes follows the same line-1/line-2/tab-table grammar as
// device-information, ported from the sibling libewf_case_data.c schema
// (original_source/, supplemented per SPEC_FULL.md §11 — the distilled
// spec only sketches this via HeaderSectionString).
var caseDataCodes = []string{"c", "n", "a", "e", "t", "m", "u", "p"}

// CaseData is the acquisition case metadata: case number, evidence
// number, unique description, examiner, notes, acquisition/system date,
// password hash.
type CaseData struct {
	CaseNumber        string // c
	EvidenceNumber    string // n
	UniqueDescription string // a
	ExaminerName      string // e
	Notes             string // t
	AcquisitionDate   string // m
	SystemDate        string // u
	PasswordHash      string // p
}

func (c *CaseData) Generate() *Table {
	t := &Table{Version: "1", Section: "main", Codes: append([]string(nil), caseDataCodes...)}
	t.Values = make([]string, len(caseDataCodes))
	t.Set("c", c.CaseNumber)
	t.Set("n", c.EvidenceNumber)
	t.Set("a", c.UniqueDescription)
	t.Set("e", c.ExaminerName)
	t.Set("t", c.Notes)
	t.Set("m", c.AcquisitionDate)
	t.Set("u", c.SystemDate)
	t.Set("p", c.PasswordHash)
	return t
}

func ParseCaseData(t *Table) *CaseData {
	return &CaseData{
		CaseNumber:        t.Get("c"),
		EvidenceNumber:    t.Get("n"),
		UniqueDescription: t.Get("a"),
		ExaminerName:      t.Get("e"),
		Notes:             t.Get("t"),
		AcquisitionDate:   t.Get("m"),
		SystemDate:        t.Get("u"),
		PasswordHash:      t.Get("p"),
	}
}
