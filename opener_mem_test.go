package ewf

import (
	"fmt"
	"sync"

	"github.com/evidentiary/ewfgo/bfio"
)

// memOpener is an in-memory Opener fixture, standing in for the real
// filesystem so tests can exercise the read/write paths against plain
// byte slices.
type memOpener struct {
	mu    sync.Mutex
	files map[string]*bfio.MemHandle
}

func newMemOpener() *memOpener {
	return &memOpener{files: make(map[string]*bfio.MemHandle)}
}

func (m *memOpener) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

func (m *memOpener) Create(name string) (bfio.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := bfio.NewMemHandle()
	m.files[name] = h
	return h, nil
}

func (m *memOpener) Open(name string) (bfio.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("memOpener: no such file %q", name)
	}
	return h, nil
}
