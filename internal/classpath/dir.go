package classpath

import (
	"os"
	"path/filepath"
)

// Dir is a classpath entry backed by an exploded directory tree of .class
// files (as opposed to a jar/zip Archive), read through the mmap reader
// where available.
type Dir struct {
	root string
}

func OpenDir(root string) *Dir { return &Dir{root: root} }

func (d *Dir) pathFor(internalName string) string {
	return filepath.Join(d.root, filepath.FromSlash(internalName)+".class")
}

func (d *Dir) Has(internalName string) bool {
	_, err := os.Stat(d.pathFor(internalName))
	return err == nil
}

func (d *Dir) Lookup(internalName string) (RawClass, bool, error) {
	p := d.pathFor(internalName)
	if _, err := os.Stat(p); err != nil {
		return RawClass{}, false, nil
	}
	mf, err := mmapOpen(p)
	if err != nil {
		return RawClass{}, false, err
	}
	defer mf.Close()
	data := make([]byte, len(mf.Bytes()))
	copy(data, mf.Bytes())
	return RawClass{Name: internalName, Bytes: data}, true, nil
}
