package ewf

import (
	"fmt"
	"os"

	"github.com/evidentiary/ewfgo/bfio"
)

// FileOpener is the production Opener: segment file names are paths on
// the local filesystem.
type FileOpener struct{}

func (FileOpener) Exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func (FileOpener) Create(name string) (bfio.Handle, error) {
	h, err := bfio.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("ewf: create %s: %w", name, err)
	}
	return h, nil
}

func (FileOpener) Open(name string) (bfio.Handle, error) {
	h, err := bfio.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("ewf: open %s: %w", name, err)
	}
	return h, nil
}
