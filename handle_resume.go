package ewf

import (
	"fmt"

	"github.com/evidentiary/ewfgo/ewferror"
	"github.com/evidentiary/ewfgo/segment"
)

// Resume reopens an interrupted write: it parses the existing segment
// set exactly like Open, then repositions the Handle for further
// WriteBuffer calls starting at a new trailing segment file (spec §5,
// open_resume: "find last complete section, continue acquisition").
//
// This implementation does not attempt to truncate a torn trailing
// section in the last existing segment file in place — open_resume
// instead starts a fresh segment file for anything written after
// resume, leaving every previously-finalized segment file untouched.
// A torn last segment (a partially-written sectors/table pair with no
// "next"/"done" terminator) makes the underlying Open fail with the
// error its section-chain walk reports; no bytes are recovered from it.
// A segment set that opens but has no resolvable chunks at all is
// rejected by Resume with an INPUT/unsupported_value error.
func Resume(basePath string, opener Opener, cfg Config) (*Handle, error) {
	h, err := Open(basePath, opener, cfg)
	if err != nil {
		return nil, err
	}

	if h.chunkTable.NumberOfChunks() == 0 {
		return nil, ewferror.Input("ewf.Resume", ewferror.CodeUnsupportedValue,
			fmt.Errorf("segment set has no resolvable chunks to resume from"))
	}

	h.writing = true
	h.segmentIndex = h.segmentCount()
	h.totalBytes = h.media.MediaSize()
	h.globalChunkIdx = h.chunkTable.NumberOfChunks()
	return h, nil
}

// segmentCount reports how many segment files have already been
// written, derived from the glob the underlying Open call performed.
func (h *Handle) segmentCount() int {
	names, err := segment.Glob(h.basePath, h.kind, h.opener.Exists)
	if err != nil {
		return 0
	}
	return len(names)
}
