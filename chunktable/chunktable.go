// Package chunktable resolves a global chunk index to the segment file,
// byte range, and range flags that hold it from the decoded table/table2
// sections it is given, computing each chunk's range on a cache miss and
// caching unpacked chunk bytes (spec §4.5: "Chunk table").
package chunktable

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/evidentiary/ewfgo/bfio"
	"github.com/evidentiary/ewfgo/chunk"
	"github.com/evidentiary/ewfgo/compress"
	"github.com/evidentiary/ewfgo/ewferror"
	"github.com/evidentiary/ewfgo/section"
)

// segmentRange is one segment file's contribution to the global chunk
// index space: its decoded table and the backing store to read from.
type segmentRange struct {
	firstChunk int
	table      *section.Table
	sectionEnd uint64
	backing    bfio.Handle
}

// Table is the assembled, append-only view of every segment's table
// section, resolving a global chunk index to its bytes with a linear
// scan over the registered segments (segment counts are small).
type Table struct {
	mu        sync.Mutex
	segments  []segmentRange
	cache     *lruCache
	chunkSize uint32
	method    compress.Method

	// OnHit/OnMiss, if set, are called on every Get for cache
	// instrumentation (wired to *metrics.Recorder by the Handle).
	OnHit  func()
	OnMiss func()
}

// New builds an empty chunk table. cacheCapacity bounds how many
// unpacked chunks are kept resident; 0 disables caching.
func New(chunkSize uint32, method compress.Method, cacheCapacity int) *Table {
	return &Table{
		chunkSize: chunkSize,
		method:    method,
		cache:     newLRUCache(cacheCapacity),
	}
}

// AddSegment registers a segment file's decoded table, covering global
// chunk indices [firstChunk, firstChunk+len(table.Entries)).
func (t *Table) AddSegment(firstChunk int, tbl *section.Table, sectionEnd uint64, backing bfio.Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segments = append(t.segments, segmentRange{firstChunk: firstChunk, table: tbl, sectionEnd: sectionEnd, backing: backing})
}

// DecodeWithFallback decodes a table section payload, retrying with the
// table2 payload on checksum failure (spec §7: "a table2 fallback
// recovers a corrupted table section").
func DecodeWithFallback(tablePayload, table2Payload []byte) (*section.Table, error) {
	tbl, err := section.DecodeTable(tablePayload)
	if err == nil {
		return tbl, nil
	}
	if table2Payload == nil {
		return nil, err
	}
	tbl2, err2 := section.DecodeTable(table2Payload)
	if err2 != nil {
		return nil, ewferror.Input("chunktable.DecodeWithFallback", ewferror.CodeChecksumMismatch,
			fmt.Errorf("both table and table2 failed: %v / %v", err, err2))
	}
	return tbl2, nil
}

func (t *Table) locate(index int) (*segmentRange, int, error) {
	for i := range t.segments {
		s := &t.segments[i]
		if index >= s.firstChunk && index < s.firstChunk+len(s.table.Entries) {
			return s, index - s.firstChunk, nil
		}
	}
	return nil, 0, ewferror.Argument("chunktable.locate", ewferror.CodeOutOfBounds,
		fmt.Errorf("chunk index %d out of range", index))
}

// Get resolves and returns chunk index's unpacked bytes, reading and
// unpacking from the backing segment file on a cache miss.
func (t *Table) Get(index int) ([]byte, chunk.RangeFlags, error) {
	t.mu.Lock()
	if data, flags, ok := t.cache.get(index); ok {
		t.mu.Unlock()
		if t.OnHit != nil {
			t.OnHit()
		}
		return data, flags, nil
	}
	if t.OnMiss != nil {
		t.OnMiss()
	}
	seg, localIndex, err := t.locate(index)
	if err != nil {
		t.mu.Unlock()
		return nil, 0, err
	}
	offset, size, compressed := seg.table.ResolveChunkRange(localIndex, seg.sectionEnd)
	backing := seg.backing
	t.mu.Unlock()

	packed := make([]byte, size)
	if _, err := backing.ReadAt(packed, int64(offset)); err != nil {
		return nil, 0, ewferror.IO("chunktable.Get", ewferror.CodeRead, err)
	}

	rangeFlags := chunk.IsPacked
	if compressed {
		rangeFlags |= chunk.IsCompressed
		// A table entry's compressed bit covers both deflate-compressed
		// chunks and the 8-byte pattern-fill shortcut (spec §4.3): an
		// 8-byte payload under the compressed bit is always a pattern,
		// since deflate never legitimately emits output that small.
		if size == 8 {
			rangeFlags |= chunk.UsesPatternFill
		}
	} else {
		// Uncompressed chunks always carry a trailing Adler-32 (spec
		// §4.3 step 4), so every uncompressed entry is unpacked as
		// checksummed; bare chunks without a checksum are not read here.
		rangeFlags |= chunk.HasChecksum
	}
	data, resolvedFlags, err := chunk.Unpack(packed, t.chunkSize, t.method, rangeFlags, 0, false)
	if err != nil {
		return nil, 0, err
	}

	t.mu.Lock()
	t.cache.put(index, data, resolvedFlags)
	t.mu.Unlock()
	return data, resolvedFlags, nil
}

// NumberOfChunks returns the total chunk count across every registered
// segment.
func (t *Table) NumberOfChunks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.segments {
		n += len(s.table.Entries)
	}
	return n
}

// lruCache is a bounded least-recently-used cache of unpacked chunk
// bytes, keyed by global chunk index (spec §4.5, "LRU-cached").
type lruCache struct {
	capacity int
	ll       *list.List
	items    map[int]*list.Element
}

type cacheEntry struct {
	index int
	data  []byte
	flags chunk.RangeFlags
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{capacity: capacity, ll: list.New(), items: make(map[int]*list.Element)}
}

func (c *lruCache) get(index int) ([]byte, chunk.RangeFlags, bool) {
	if c.capacity <= 0 {
		return nil, 0, false
	}
	el, ok := c.items[index]
	if !ok {
		return nil, 0, false
	}
	c.ll.MoveToFront(el)
	e := el.Value.(*cacheEntry)
	return e.data, e.flags, true
}

func (c *lruCache) put(index int, data []byte, flags chunk.RangeFlags) {
	if c.capacity <= 0 {
		return
	}
	if el, ok := c.items[index]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).data = data
		el.Value.(*cacheEntry).flags = flags
		return
	}
	el := c.ll.PushFront(&cacheEntry{index: index, data: data, flags: flags})
	c.items[index] = el
	if c.ll.Len() > c.capacity {
		back := c.ll.Back()
		if back != nil {
			c.ll.Remove(back)
			delete(c.items, back.Value.(*cacheEntry).index)
		}
	}
}
