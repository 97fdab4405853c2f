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

import "unsafe"

// Writer is the platform-independent code emitter scaffold.
// Architecture-specific emit methods are defined in emit_<arch>.go files.
type Writer struct {
	Ptr   unsafe.Pointer // current write pointer
	End   unsafe.Pointer // buffer end minus reserve
	Start unsafe.Pointer // buffer start for position calculation

	Labels    [64]int32
	LabelNext uint8

	Fixups    [128]Fixup
	FixupNext uint8
}

// Fixup records a forward reference that must be patched after all
// labels are placed. How the patch is encoded is architecture-specific.
type Fixup struct {
	CodePos  int32 // position in code
	LabelID  uint8 // target label
	Size     uint8 // amd64: 1=rel8, 4=rel32; arm64: branch instruction kind
	Relative bool  // true for PC-relative jumps
}

// newWriter wraps a byte buffer for emission.
func newWriter(buf []byte) *Writer {
	p := unsafe.Pointer(&buf[0])
	return &Writer{
		Ptr:   p,
		Start: p,
		End:   unsafe.Add(p, len(buf)),
	}
}

// Len returns the number of bytes emitted so far.
func (w *Writer) Len() int {
	return int(uintptr(w.Ptr) - uintptr(w.Start))
}

// DefineLabel allocates a new label at the current write position.
func (w *Writer) DefineLabel() uint8 {
	id := w.LabelNext
	w.LabelNext++
	w.Labels[id] = int32(w.Len())
	return id
}

// ReserveLabel allocates a label ID for later placement via MarkLabel.
func (w *Writer) ReserveLabel() uint8 {
	id := w.LabelNext
	w.LabelNext++
	w.Labels[id] = -1 // undefined until MarkLabel
	return id
}

// MarkLabel sets the position of a previously reserved label.
func (w *Writer) MarkLabel(id uint8) {
	w.Labels[id] = int32(w.Len())
}

// AddFixup records a forward reference to be patched by ResolveFixups.
// On amd64 it is recorded at the position of the displacement bytes, on
// arm64 at the position of the branch instruction itself.
func (w *Writer) AddFixup(labelID uint8, size uint8, relative bool) {
	w.Fixups[w.FixupNext] = Fixup{
		CodePos:  int32(w.Len()),
		LabelID:  labelID,
		Size:     size,
		Relative: relative,
	}
	w.FixupNext++
}

// ResolveFixups patches all recorded forward references after code
// generation.
func (w *Writer) ResolveFixups() {
	for i := uint8(0); i < w.FixupNext; i++ {
		f := &w.Fixups[i]
		targetPos := w.Labels[f.LabelID]
		if targetPos < 0 {
			panic("jit: undefined label")
		}
		w.patchFixup(f, targetPos)
	}
}

func (w *Writer) checkSpace(n int) {
	if uintptr(w.Ptr)+uintptr(n) > uintptr(w.End) {
		panic("jit: code buffer exhausted")
	}
}

// emitByte appends a single byte to the writer.
func (w *Writer) emitByte(b byte) {
	w.checkSpace(1)
	*(*byte)(w.Ptr) = b
	w.Ptr = unsafe.Add(w.Ptr, 1)
}

// emitBytes appends raw bytes to the writer.
func (w *Writer) emitBytes(bs ...byte) {
	w.checkSpace(len(bs))
	for _, b := range bs {
		*(*byte)(w.Ptr) = b
		w.Ptr = unsafe.Add(w.Ptr, 1)
	}
}

// emitU32 appends a little-endian uint32.
func (w *Writer) emitU32(v uint32) {
	w.checkSpace(4)
	*(*uint32)(w.Ptr) = v
	w.Ptr = unsafe.Add(w.Ptr, 4)
}

// emitU64 appends a little-endian uint64.
func (w *Writer) emitU64(v uint64) {
	w.checkSpace(8)
	*(*uint64)(w.Ptr) = v
	w.Ptr = unsafe.Add(w.Ptr, 8)
}
