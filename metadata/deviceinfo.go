package metadata

import "strconv"

// deviceInfoCodes is the fixed device-information column order:
// sn md lb ts hs dc dt pid rs ls bp ph (spec §4.9).
var deviceInfoCodes = []string{"sn", "md", "lb", "ts", "hs", "dc", "dt", "pid", "rs", "ls", "bp", "ph"}

// MediaKind mirrors section.MediaType without importing it, so this
// package stays independent of the binary section layout.
type MediaKind uint8

const (
	MediaRemovable MediaKind = iota
	MediaFixed
	MediaOptical
	MediaSingleFiles
	MediaMemory
)

// driveTypeCode maps a MediaKind to the single-letter "dt" code
// (spec §4.9: "dt (drive type: r|f|c|l|m)").
func driveTypeCode(k MediaKind) string {
	switch k {
	case MediaFixed:
		return "f"
	case MediaOptical:
		return "c"
	case MediaSingleFiles:
		return "l"
	case MediaMemory:
		return "m"
	default:
		return "r"
	}
}

// DeviceInformation is the decoded device-information section: a
// snapshot of the acquired device's identifying attributes, distinct
// from the binary MediaValues section it accompanies.
type DeviceInformation struct {
	SerialNumber        string // sn
	Model               string // md
	DeviceLabel         string // lb
	NumberOfSectors     uint64 // ts
	HPAProtectedSectors uint64 // hs
	DCOProtectedSectors uint64 // dc
	MediaKind           MediaKind
	ProcessIdentifier   string // pid
	BytesPerSector      uint32 // bp
	IsPhysical          bool   // ph
}

// Generate renders d as a metadata.Table ready for EncodeSection.
func (d *DeviceInformation) Generate() *Table {
	t := &Table{Version: "1", Section: "main", Codes: append([]string(nil), deviceInfoCodes...)}
	t.Values = make([]string, len(deviceInfoCodes))

	t.Set("sn", d.SerialNumber)
	t.Set("md", d.Model)
	t.Set("lb", d.DeviceLabel)
	t.Set("ts", strconv.FormatUint(d.NumberOfSectors, 10))
	t.Set("hs", formatOptionalUint(d.HPAProtectedSectors))
	t.Set("dc", formatOptionalUint(d.DCOProtectedSectors))
	t.Set("dt", driveTypeCode(d.MediaKind))
	t.Set("pid", d.ProcessIdentifier)
	t.Set("rs", "")
	t.Set("ls", "")
	t.Set("bp", strconv.FormatUint(uint64(d.BytesPerSector), 10))
	if d.IsPhysical {
		t.Set("ph", "1")
	} else {
		t.Set("ph", "")
	}
	return t
}

func formatOptionalUint(v uint64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatUint(v, 10)
}

// ParseDeviceInformation decodes a Table produced by Generate back into
// a DeviceInformation. Unknown codes are ignored (spec §4.9: "logged and
// skipped").
func ParseDeviceInformation(t *Table) *DeviceInformation {
	d := &DeviceInformation{}
	d.SerialNumber = t.Get("sn")
	d.Model = t.Get("md")
	d.DeviceLabel = t.Get("lb")
	d.NumberOfSectors = parseUint(t.Get("ts"))
	d.HPAProtectedSectors = parseUint(t.Get("hs"))
	d.DCOProtectedSectors = parseUint(t.Get("dc"))
	d.ProcessIdentifier = t.Get("pid")
	d.BytesPerSector = uint32(parseUint(t.Get("bp")))
	d.IsPhysical = t.Get("ph") == "1"

	switch t.Get("dt") {
	case "f":
		d.MediaKind = MediaFixed
	case "c":
		d.MediaKind = MediaOptical
	case "l":
		d.MediaKind = MediaSingleFiles
	case "m":
		d.MediaKind = MediaMemory
	default:
		d.MediaKind = MediaRemovable
	}
	return d
}

func parseUint(s string) uint64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
