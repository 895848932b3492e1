package section

import (
	"fmt"

	"github.com/evidentiary/ewfgo/bfio"
	"github.com/evidentiary/ewfgo/ewferror"
)

// MaxChainLength bounds a single segment file's section chain so a
// corrupt or cyclic NextOffset chain cannot spin a reader forever.
const MaxChainLength = 1 << 20

// ReadChain walks the singly-linked section chain in h starting at
// startOffset, reading each descriptor and its payload and stepping to
// the next section by the descriptor's Size, and stops after a "done"
// or "next" section. It never loops forever: a NextOffset that doesn't
// advance past the current section's start, or a Size smaller than a
// descriptor, is treated as a corrupt chain.
func ReadChain(h bfio.Handle, startOffset uint64) ([]*Section, error) {
	var sections []*Section
	offset := startOffset

	for i := 0; i < MaxChainLength; i++ {
		hdr := make([]byte, DescriptorSize)
		if _, err := h.ReadAt(hdr, int64(offset)); err != nil {
			return nil, ewferror.IO("section.ReadChain", ewferror.CodeRead, err)
		}
		d, err := ReadDescriptor(hdr)
		if err != nil {
			return nil, err
		}

		payloadSize := int64(d.Size) - DescriptorSize
		var payload []byte
		if payloadSize > 0 {
			payload = make([]byte, payloadSize)
			if _, err := h.ReadAt(payload, int64(offset)+DescriptorSize); err != nil {
				return nil, ewferror.IO("section.ReadChain", ewferror.CodeRead, err)
			}
		}

		sections = append(sections, &Section{Descriptor: *d, Offset: offset, Payload: payload})

		typ := d.TypeString()
		if typ == TypeDone || typ == TypeNext {
			return sections, nil
		}
		if d.NextOffset <= offset {
			return nil, ewferror.Input("section.ReadChain", ewferror.CodeUnsupportedValue,
				fmt.Errorf("section %q at offset %d has non-advancing next_offset %d", typ, offset, d.NextOffset))
		}
		if d.Size < DescriptorSize {
			return nil, ewferror.Input("section.ReadChain", ewferror.CodeUnsupportedValue,
				fmt.Errorf("section %q at offset %d has size %d, smaller than its descriptor", typ, offset, d.Size))
		}
		offset += d.Size
	}
	return nil, ewferror.Input("section.ReadChain", ewferror.CodeUnsupportedValue,
		fmt.Errorf("section chain exceeded %d entries without reaching done/next", MaxChainLength))
}

// WriteChain writes each section's descriptor+payload back to h at its
// recorded Offset, used by the sections-correction back-patch pass
// (spec §5, write-close): offsets never shift; each section's descriptor
// (with a recomputed checksum) and its payload are rewritten in place
// from the in-memory values.
func WriteChain(h bfio.Handle, sections []*Section) error {
	for _, s := range sections {
		encoded := EncodeDescriptor(s.Descriptor.TypeString(), s.Descriptor.NextOffset, s.Descriptor.Size)
		if _, err := h.WriteAt(encoded, int64(s.Offset)); err != nil {
			return ewferror.IO("section.WriteChain", ewferror.CodeWrite, err)
		}
		if len(s.Payload) > 0 {
			if _, err := h.WriteAt(s.Payload, int64(s.Offset)+DescriptorSize); err != nil {
				return ewferror.IO("section.WriteChain", ewferror.CodeWrite, err)
			}
		}
	}
	return nil
}
