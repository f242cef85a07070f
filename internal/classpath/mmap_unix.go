//go:build !windows

package classpath

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile maps path read-only into memory, generalizing the executable-
// memory mapping pattern jit/mmap_unix.go uses for JIT code buffers to
// read-only classpath archive access: a directory-mode classpath entry
// (an exploded rt-classes tree rather than a jar) benefits from mapping
// its largest class files instead of copying them through read(2).
type mmapFile struct {
	data []byte
}

func mmapOpen(path string) (*mmapFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return &mmapFile{data: nil}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("classpath: mmap %s: %w", path, err)
	}
	return &mmapFile{data: data}, nil
}

func (m *mmapFile) Bytes() []byte { return m.data }

func (m *mmapFile) Close() error {
	if m.data == nil {
		return nil
	}
	return unix.Munmap(m.data)
}
