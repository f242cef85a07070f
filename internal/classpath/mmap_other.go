//go:build windows

package classpath

import "os"

// mmapFile falls back to a plain read on platforms where the unix mmap
// path does not apply; the directory classpath reader only needs the
// bytes, not the mapping itself, so correctness is identical.
type mmapFile struct {
	data []byte
}

func mmapOpen(path string) (*mmapFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &mmapFile{data: data}, nil
}

func (m *mmapFile) Bytes() []byte { return m.data }
func (m *mmapFile) Close() error  { return nil }
