package classpath

import (
	"fmt"
	"sync"

	"github.com/aoki-yuta/javac8/internal/classfile"
)

// entrySource is satisfied by Archive and Dir.
type entrySource interface {
	Has(internalName string) bool
	Lookup(internalName string) (RawClass, bool, error)
}

// Classpath aggregates every place a class name can be found: the bundled
// runtime-classes archive (unless -no-rt was given), user -cp entries in
// order, and classes compiled earlier in the same invocation. Resolution
// order matches javac's: in-process classes first (so a just-compiled
// class always shadows a same-named classpath entry), then -cp entries in
// the order given, then the runtime archive last.
type Classpath struct {
	mu        sync.RWMutex
	inProcess map[string]*classfile.Class
	entries   []entrySource
	rt        entrySource // nil if -no-rt
	decoded   map[string]*ResolvedClass
}

// New builds a Classpath over rt (the bundled runtime archive, or nil for
// -no-rt) and zero or more additional user classpath entries, in lookup
// order. Variadic rather than slice-typed so a driver assembling entries
// from javac8.toml's classpath list one at a time never needs to name the
// unexported entrySource interface itself.
func New(rt entrySource, userEntries ...entrySource) *Classpath {
	return &Classpath{
		inProcess: make(map[string]*classfile.Class),
		entries:   userEntries,
		rt:        rt,
		decoded:   make(map[string]*ResolvedClass),
	}
}

// AddEntry appends one more user classpath entry (checked after
// in-process classes, before the runtime archive), for a driver that
// discovers -cp entries one at a time rather than all at construction.
func (cp *Classpath) AddEntry(e entrySource) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.entries = append(cp.entries, e)
}

// RegisterInProcess makes a class compiled earlier in this invocation
// visible to subsequent lookups, without any archive round trip.
func (cp *Classpath) RegisterInProcess(internalName string, class *classfile.Class) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.inProcess[internalName] = class
}

// Find resolves internalName to a decoded summary of its structure
// (superclass, interfaces, fields, methods) without requiring the caller
// to know whether the class came from the current compilation, a -cp
// entry, or the runtime archive.
func (cp *Classpath) Find(internalName string) (*ResolvedClass, bool, error) {
	cp.mu.RLock()
	if rc, ok := cp.decoded[internalName]; ok {
		cp.mu.RUnlock()
		return rc, true, nil
	}
	if class, ok := cp.inProcess[internalName]; ok {
		cp.mu.RUnlock()
		rc := summarizeInProcess(class)
		cp.mu.Lock()
		cp.decoded[internalName] = rc
		cp.mu.Unlock()
		return rc, true, nil
	}
	cp.mu.RUnlock()

	for _, e := range cp.entries {
		raw, ok, err := e.Lookup(internalName)
		if err != nil {
			return nil, false, err
		}
		if ok {
			rc, err := Decode(raw.Bytes)
			if err != nil {
				return nil, false, fmt.Errorf("classpath: decoding %s: %w", internalName, err)
			}
			cp.mu.Lock()
			cp.decoded[internalName] = rc
			cp.mu.Unlock()
			return rc, true, nil
		}
	}
	if cp.rt != nil {
		raw, ok, err := cp.rt.Lookup(internalName)
		if err != nil {
			return nil, false, err
		}
		if ok {
			rc, err := Decode(raw.Bytes)
			if err != nil {
				return nil, false, fmt.Errorf("classpath: decoding %s: %w", internalName, err)
			}
			cp.mu.Lock()
			cp.decoded[internalName] = rc
			cp.mu.Unlock()
			return rc, true, nil
		}
	}
	return nil, false, nil
}
