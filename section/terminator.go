package section

// TerminatorSize is the fixed size of a "next"/"done" descriptor pair:
// just the bare 76-byte descriptor, no payload (spec §3, "exactly 76
// bytes (EWF1)").
const TerminatorSize = DescriptorSize

// EncodeNext renders a "next" terminator pointing at selfOffset — the
// section's own start, per spec §3 ("points to self") — used for every
// intermediate segment file in a set.
func EncodeNext(selfOffset uint64) []byte {
	return EncodeDescriptor(TypeNext, selfOffset, TerminatorSize)
}

// EncodeDone renders the "done" terminator closing the last segment
// file of a set. Its NextOffset conventionally repeats its own offset
// as well; only its type tag distinguishes it from "next".
func EncodeDone(selfOffset uint64) []byte {
	return EncodeDescriptor(TypeDone, selfOffset, TerminatorSize)
}
