// Package bfio provides the capability-object IO abstraction the handle
// is built against, replacing libewf's function-pointer "bfio" plugin
// registration (see REDESIGN FLAGS). A Handle never opens files itself;
// it is handed a Pool that knows how to resolve segment-file names to
// Handles satisfying this interface.
package bfio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// Handle is a single open backing store: a segment file, or a memory
// buffer in tests. Implementations must be safe for concurrent ReadAt,
// but WriteAt/Truncate are only ever called from the single writer that
// owns the segment file.
type Handle interface {
	io.ReaderAt
	io.WriterAt
	Size() (int64, error)
	Truncate(size int64) error
	Close() error
}

// FileHandle backs a Handle with an *os.File.
type FileHandle struct {
	f *os.File
}

func OpenFile(name string, flag int, perm os.FileMode) (*FileHandle, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("bfio: open %s: %w", name, err)
	}
	return &FileHandle{f: f}, nil
}

func (h *FileHandle) ReadAt(p []byte, off int64) (int, error)  { return h.f.ReadAt(p, off) }
func (h *FileHandle) WriteAt(p []byte, off int64) (int, error) { return h.f.WriteAt(p, off) }
func (h *FileHandle) Truncate(size int64) error                { return h.f.Truncate(size) }
func (h *FileHandle) Close() error                             { return h.f.Close() }

func (h *FileHandle) Size() (int64, error) {
	fi, err := h.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// MemHandle is an in-memory Handle, used by tests to exercise the
// pack/section/segment round-trip without touching the filesystem.
type MemHandle struct {
	mu  sync.Mutex
	buf []byte
}

func NewMemHandle() *MemHandle { return &MemHandle{} }

func (h *MemHandle) ReadAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if off < 0 || off >= int64(len(h.buf)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, h.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h *MemHandle) WriteAt(p []byte, off int64) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(h.buf)) {
		grown := make([]byte, end)
		copy(grown, h.buf)
		h.buf = grown
	}
	copy(h.buf[off:end], p)
	return len(p), nil
}

func (h *MemHandle) Size() (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int64(len(h.buf)), nil
}

func (h *MemHandle) Truncate(size int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if size <= int64(len(h.buf)) {
		h.buf = h.buf[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, h.buf)
	h.buf = grown
	return nil
}

func (h *MemHandle) Close() error { return nil }

func (h *MemHandle) Bytes() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Clone(h.buf)
}

// Pool resolves named segment files to Handles and bounds the number of
// concurrently open descriptors, closing and reopening least-recently-used
// entries on demand (spec §5, "file-IO pool").
type Pool struct {
	mu       sync.Mutex
	maxOpen  int
	order    []string
	handles  map[string]Handle
	openFunc func(name string) (Handle, error)
}

// NewPool builds a pool. openFunc is how the pool (re)opens a name it
// evicted; file-backed handles pass bfio.OpenFile, memory-backed tests
// pass a func returning a pre-built MemHandle.
func NewPool(maxOpen int, openFunc func(name string) (Handle, error)) *Pool {
	if maxOpen <= 0 {
		maxOpen = 64
	}
	return &Pool{
		maxOpen:  maxOpen,
		handles:  make(map[string]Handle),
		openFunc: openFunc,
	}
}

func (p *Pool) Get(name string) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.handles[name]; ok {
		p.touch(name)
		return h, nil
	}

	if len(p.handles) >= p.maxOpen {
		p.evictLocked()
	}

	h, err := p.openFunc(name)
	if err != nil {
		return nil, err
	}
	p.handles[name] = h
	p.order = append(p.order, name)
	return h, nil
}

func (p *Pool) touch(name string) {
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.order = append(p.order, name)
}

func (p *Pool) evictLocked() {
	if len(p.order) == 0 {
		return
	}
	victim := p.order[0]
	p.order = p.order[1:]
	if h, ok := p.handles[victim]; ok {
		h.Close()
		delete(p.handles, victim)
	}
}

// PooledHandle is a Handle that re-resolves its backing store through a
// Pool on every call, so holders of a PooledHandle stay valid across
// the pool evicting and later reopening the underlying file (spec §5,
// "file-IO pool" bounding concurrently open segment files).
type PooledHandle struct {
	pool *Pool
	name string
}

// NewPooledHandle wraps name's entry in pool as a stable Handle.
func NewPooledHandle(pool *Pool, name string) *PooledHandle {
	return &PooledHandle{pool: pool, name: name}
}

func (p *PooledHandle) ReadAt(b []byte, off int64) (int, error) {
	h, err := p.pool.Get(p.name)
	if err != nil {
		return 0, err
	}
	return h.ReadAt(b, off)
}

func (p *PooledHandle) WriteAt(b []byte, off int64) (int, error) {
	h, err := p.pool.Get(p.name)
	if err != nil {
		return 0, err
	}
	return h.WriteAt(b, off)
}

func (p *PooledHandle) Size() (int64, error) {
	h, err := p.pool.Get(p.name)
	if err != nil {
		return 0, err
	}
	return h.Size()
}

func (p *PooledHandle) Truncate(size int64) error {
	h, err := p.pool.Get(p.name)
	if err != nil {
		return err
	}
	return h.Truncate(size)
}

// Close is a no-op: the pool, not individual holders, owns when the
// underlying file actually closes.
func (p *PooledHandle) Close() error { return nil }

// CloseAll closes every open handle in the pool.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var first error
	for name, h := range p.handles {
		if err := h.Close(); err != nil && first == nil {
			first = err
		}
		delete(p.handles, name)
	}
	p.order = nil
	return first
}
