package metadata

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeviceInformationGenerate(t *testing.T) {
	d := &DeviceInformation{
		SerialNumber:    "SN-1",
		Model:           "M",
		NumberOfSectors: 2048,
		MediaKind:       MediaFixed,
		BytesPerSector:  512,
		IsPhysical:      true,
	}
	table := d.Generate()
	utf8 := table.GenerateUTF8()
	lines := strings.Split(strings.TrimRight(utf8, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), utf8)
	}
	if lines[0] != "1" {
		t.Fatalf("line 1 = %q, want %q", lines[0], "1")
	}
	if lines[1] != "main" {
		t.Fatalf("line 2 = %q, want %q", lines[1], "main")
	}
	wantHeader := "sn\tmd\tlb\tts\ths\tdc\tdt\tpid\trs\tls\tbp\tph"
	if lines[2] != wantHeader {
		t.Fatalf("line 3 = %q, want %q", lines[2], wantHeader)
	}
	wantValues := "SN-1\tM\t\t2048\t\t\tf\t\t\t\t512\t1"
	if lines[3] != wantValues {
		t.Fatalf("line 4 = %q, want %q", lines[3], wantValues)
	}
}

func TestDeviceInformationRoundTrip(t *testing.T) {
	d := &DeviceInformation{
		SerialNumber:        "WD-12345",
		Model:               "WDC WD10",
		DeviceLabel:         "Exhibit 1",
		NumberOfSectors:     1953525168,
		HPAProtectedSectors: 12,
		DCOProtectedSectors: 0,
		MediaKind:           MediaFixed,
		ProcessIdentifier:   "4242",
		BytesPerSector:      512,
		IsPhysical:          true,
	}
	table := d.Generate()
	got := ParseDeviceInformation(table)
	if diff := cmp.Diff(d, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionEncodeDecodeRoundTrip(t *testing.T) {
	h := &HeaderValues{
		CaseNumber:     "2026-001",
		EvidenceNumber: "EV-1",
		ExaminerName:   "J. Doe",
		Version:        "7.0",
		Platform:       "Linux",
	}
	table := h.Generate()

	encoded, err := EncodeSection(table)
	if err != nil {
		t.Fatalf("EncodeSection: %v", err)
	}
	decoded, err := DecodeSection(encoded)
	if err != nil {
		t.Fatalf("DecodeSection: %v", err)
	}
	got := ParseHeaderValues(decoded)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCaseDataRoundTrip(t *testing.T) {
	c := &CaseData{
		CaseNumber:      "C-1",
		EvidenceNumber:  "E-1",
		ExaminerName:    "A. Examiner",
		AcquisitionDate: "2026 7 31 10 0 0",
	}
	table := c.Generate()
	got := ParseCaseData(table)
	if diff := cmp.Diff(c, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUTF8TrailingCRAndUnknownCodes(t *testing.T) {
	data := "1\r\nmain\r\nsn\tzz\r\nSN-1\tignored-value\r\n"
	table, err := ParseUTF8(data)
	if err != nil {
		t.Fatalf("ParseUTF8: %v", err)
	}
	if table.Get("sn") != "SN-1" {
		t.Fatalf("sn = %q, want SN-1", table.Get("sn"))
	}
	if table.Get("zz") != "ignored-value" {
		t.Fatalf("zz = %q, want ignored-value", table.Get("zz"))
	}
}

func TestParseUTF8MismatchedCounts(t *testing.T) {
	data := "1\nmain\nsn\tmd\tlb\nSN-1\n"
	table, err := ParseUTF8(data)
	if err != nil {
		t.Fatalf("ParseUTF8: %v", err)
	}
	if len(table.Values) != len(table.Codes) {
		t.Fatalf("values/codes length mismatch: %d vs %d", len(table.Values), len(table.Codes))
	}
	if table.Get("md") != "" {
		t.Fatalf("md = %q, want empty (padded)", table.Get("md"))
	}
}
