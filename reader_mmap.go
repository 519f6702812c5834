package fleece

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	ferrors "github.com/jbro885/fleece/errors"
)

// OpenFile memory-maps path read-only and returns a Reader over its
// contents. The mapping is released by Reader.Close.
//
// Modeled on the teacher index's Open/OpenFile split: the file descriptor
// is only needed to establish the mapping and is closed immediately
// afterward (per POSIX mmap(2) semantics).
func OpenFile(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fleece document: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat fleece document: %w", err)
	}
	if stat.Size() < 2 {
		return nil, fmt.Errorf("fleece document %q: %w", path, ferrors.ErrFileTooShort)
	}

	adviseRandom(int(f.Fd()), 0, stat.Size())

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap fleece document: %w", err)
	}
	r := &Reader{
		data: []byte(mm),
		closer: func() error {
			return mm.Unmap()
		},
	}
	return r, nil
}
