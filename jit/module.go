/*
Copyright (C) 2026  Zeke Medley

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package jit

import (
	"fmt"
	"unsafe"

	"github.com/docker/go-units"
	"github.com/google/uuid"
)

// DataID identifies a named data object within a module.
type DataID int32

type dataObject struct {
	name     string
	contents []byte // pending definition until finalized
	defined  bool
	resolved bool
	addr     uintptr
}

// Module is the code-generation backend's module: a mutable collection
// of named data objects and generated functions, exclusively owned by
// one compiling thread for the duration of a compilation.
type Module struct {
	Name string
	ID   uuid.UUID

	names   map[string]DataID
	objects []*dataObject

	seg    *memBuf // current data segment page
	segOff int
	segs   []*memBuf
	code   []*memBuf
	used   int // code bytes in use
}

const segPageSize = 1 << 16

func NewModule(name string) *Module {
	return &Module{
		Name:  name,
		ID:    uuid.New(),
		names: make(map[string]DataID),
	}
}

// DeclareData registers a named, exported, writable data object and
// returns its id. Declaring the same name twice yields the same id, so
// data-access emission can re-declare symbols freely.
func (m *Module) DeclareData(name string) (DataID, error) {
	if name == "" {
		return 0, fmt.Errorf("module %s: empty data symbol name", m.Name)
	}
	if id, ok := m.names[name]; ok {
		return id, nil
	}
	id := DataID(len(m.objects))
	m.objects = append(m.objects, &dataObject{name: name})
	m.names[name] = id
	return id, nil
}

// DefineData binds contents as the definition of a declared object. A
// second definition for the same object is rejected.
func (m *Module) DefineData(id DataID, contents []byte) error {
	obj, err := m.object(id)
	if err != nil {
		return err
	}
	if obj.defined {
		return fmt.Errorf("module %s: duplicate definition of data symbol %q", m.Name, obj.name)
	}
	obj.contents = append([]byte(nil), contents...)
	obj.defined = true
	return nil
}

// FinalizeDefinitions copies every pending definition into the data
// segment and assigns its final address. It may be called repeatedly;
// each call resolves the objects defined since the last one. A declared
// but undefined object is an error carrying the symbol name.
func (m *Module) FinalizeDefinitions() error {
	for _, obj := range m.objects {
		if obj.resolved {
			continue
		}
		if !obj.defined {
			return fmt.Errorf("module %s: data symbol %q declared but never defined", m.Name, obj.name)
		}
		addr, err := m.segAlloc(len(obj.contents))
		if err != nil {
			return fmt.Errorf("module %s: defining %q: %w", m.Name, obj.name, err)
		}
		copy(unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(obj.contents)), obj.contents)
		obj.addr = addr
		obj.resolved = true
		obj.contents = nil
	}
	return nil
}

// DataAddress returns the resolved address of a finalized data object.
func (m *Module) DataAddress(id DataID) (uintptr, error) {
	obj, err := m.object(id)
	if err != nil {
		return 0, err
	}
	if !obj.resolved {
		return 0, fmt.Errorf("module %s: data symbol %q is not finalized", m.Name, obj.name)
	}
	return obj.addr, nil
}

// LookupData returns the id of an already declared data symbol.
func (m *Module) LookupData(name string) (DataID, bool) {
	id, ok := m.names[name]
	return id, ok
}

// DataName returns the symbol name of a data object.
func (m *Module) DataName(id DataID) string {
	if obj, err := m.object(id); err == nil {
		return obj.name
	}
	return ""
}

func (m *Module) object(id DataID) (*dataObject, error) {
	if id < 0 || int(id) >= len(m.objects) {
		return nil, fmt.Errorf("module %s: unknown data id %d", m.Name, id)
	}
	return m.objects[id], nil
}

// segAlloc bumps the data segment by n bytes, 8-aligned, mapping a new
// page when the current one is full.
func (m *Module) segAlloc(n int) (uintptr, error) {
	n = roundUp(n, 8)
	if m.seg == nil || m.segOff+n > m.seg.n {
		size := segPageSize
		if n > size {
			size = n
		}
		seg, err := allocPages(size)
		if err != nil {
			return 0, err
		}
		m.seg = seg
		m.segOff = 0
		m.segs = append(m.segs, seg)
	}
	addr := uintptr(m.seg.ptr) + uintptr(m.segOff)
	m.segOff += n
	return addr, nil
}

// installCode copies finished machine code into a fresh executable page
// and returns its entry address.
func (m *Module) installCode(code []byte) (uintptr, error) {
	buf, err := allocPages(len(code))
	if err != nil {
		return 0, err
	}
	copy(buf.bytes(), code)
	if err := buf.makeRX(); err != nil {
		buf.free()
		return 0, err
	}
	m.code = append(m.code, buf)
	m.used += len(code)
	return uintptr(buf.ptr), nil
}

// Entry wraps a code address as a callable niladic function. The address
// becomes the code pointer of a synthetic closure, so the Go calling
// convention applies.
func Entry(addr uintptr) func() uint64 {
	fn := unsafe.Pointer(&struct{ p uintptr }{addr})
	return *(*func() uint64)(unsafe.Pointer(&fn))
}

// Stats renders the module's memory consumption for humans.
func (m *Module) Stats() string {
	var segBytes int
	for _, s := range m.segs {
		segBytes += s.n
	}
	return fmt.Sprintf("module %s (%s): %d data symbols in %s, %s machine code",
		m.Name, m.ID, len(m.objects),
		units.HumanSize(float64(segBytes)),
		units.HumanSize(float64(m.used)))
}
