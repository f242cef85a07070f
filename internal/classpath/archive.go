// Package classpath resolves class names against a bundled runtime-classes
// archive, in-process classes compiled earlier in the same invocation, and
// an on-disk build cache keyed by source content hash.
package classpath

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"sync"
)

// RawClass is the as-read bytes of one class file plus its internal name.
type RawClass struct {
	Name  string // internal name, e.g. "java/lang/String"
	Bytes []byte
}

// Archive reads class files out of a zip-format runtime-classes archive
// (the bundled rt.jar-equivalent, or a user-supplied -cp jar).
type Archive struct {
	path string

	mu     sync.Mutex
	zr     *zip.ReadCloser
	byName map[string]*zip.File
}

// OpenArchive opens a zip archive and indexes every ".class" entry by
// internal class name up front, from the central directory zip.Reader
// already read; class bytes are only decompressed later, by Lookup.
func OpenArchive(filePath string) (*Archive, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("classpath: opening archive %s: %w", filePath, err)
	}
	a := &Archive{path: filePath, zr: zr, byName: make(map[string]*zip.File)}
	for _, f := range zr.File {
		if path.Ext(f.Name) != ".class" {
			continue
		}
		name := f.Name[:len(f.Name)-len(".class")]
		a.byName[name] = f
	}
	return a, nil
}

// Lookup returns the raw bytes of a class by internal name, or false if
// the archive has no such entry.
func (a *Archive) Lookup(internalName string) (RawClass, bool, error) {
	a.mu.Lock()
	f, ok := a.byName[internalName]
	a.mu.Unlock()
	if !ok {
		return RawClass{}, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return RawClass{}, false, fmt.Errorf("classpath: opening %s in %s: %w", internalName, a.path, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return RawClass{}, false, fmt.Errorf("classpath: reading %s in %s: %w", internalName, a.path, err)
	}
	return RawClass{Name: internalName, Bytes: data}, true, nil
}

// Has reports whether the archive contains an entry for internalName
// without reading its bytes.
func (a *Archive) Has(internalName string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.byName[internalName]
	return ok
}

func (a *Archive) Close() error {
	return a.zr.Close()
}
