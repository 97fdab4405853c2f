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
	"bytes"
	"encoding/binary"
	"testing"
)

func emitted(w *Writer, buf []byte) []byte {
	return buf[:w.Len()]
}

func TestEmitMovRegImm64(t *testing.T) {
	buf := make([]byte, 64)
	w := newWriter(buf)
	w.EmitMovRegImm64(RegRSI, 0x1122334455667788)
	want := []byte{0x48, 0xBE, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}
	if !bytes.Equal(emitted(w, buf), want) {
		t.Errorf("mov rsi, imm64 = %x, want %x", emitted(w, buf), want)
	}
}

func TestEmitMovRegRegElidesSelfMove(t *testing.T) {
	buf := make([]byte, 64)
	w := newWriter(buf)
	w.EmitMovRegReg(RegRSI, RegRSI)
	if w.Len() != 0 {
		t.Errorf("self move emitted %d bytes", w.Len())
	}
	w.EmitMovRegReg(RegRSI, RegR8)
	want := []byte{0x4C, 0x89, 0xC6}
	if !bytes.Equal(emitted(w, buf), want) {
		t.Errorf("mov rsi, r8 = %x, want %x", emitted(w, buf), want)
	}
}

func TestRSPBaseGetsSIB(t *testing.T) {
	buf := make([]byte, 64)
	w := newWriter(buf)
	w.EmitStoreMemReg(RegRSP, 8, RegRSI)
	want := []byte{0x48, 0x89, 0xB4, 0x24, 0x08, 0x00, 0x00, 0x00}
	if !bytes.Equal(emitted(w, buf), want) {
		t.Errorf("mov [rsp+8], rsi = %x, want %x", emitted(w, buf), want)
	}
}

func TestJumpFixupForward(t *testing.T) {
	buf := make([]byte, 64)
	w := newWriter(buf)
	label := w.ReserveLabel()
	w.EmitJmp(label)
	w.EmitMovRegImm64(RegRSI, 0) // 10 bytes to skip
	w.MarkLabel(label)
	w.ResolveFixups()
	// E9 is followed by rel32 counted from the end of the instruction
	rel := int32(binary.LittleEndian.Uint32(buf[1:5]))
	if rel != 10 {
		t.Errorf("forward jump displacement %d, want 10", rel)
	}
}

func TestJumpFixupBackward(t *testing.T) {
	buf := make([]byte, 64)
	w := newWriter(buf)
	label := w.DefineLabel()
	w.EmitMovRegImm64(RegRSI, 0)
	w.EmitJcc(CcEq, label)
	w.ResolveFixups()
	// jcc is 2 opcode bytes + rel32; target is 16 bytes behind its end
	rel := int32(binary.LittleEndian.Uint32(buf[12:16]))
	if rel != -16 {
		t.Errorf("backward jump displacement %d, want -16", rel)
	}
}

func TestPrologueEpilogueFrame(t *testing.T) {
	buf := make([]byte, 64)
	w := newWriter(buf)
	w.EmitPrologue(256)
	want := []byte{0x55, 0x48, 0x89, 0xE5, 0x48, 0x81, 0xEC, 0x00, 0x01, 0x00, 0x00}
	if !bytes.Equal(emitted(w, buf), want) {
		t.Errorf("prologue = %x, want %x", emitted(w, buf), want)
	}
	w.EmitEpilogue()
	tail := buf[11:w.Len()]
	wantTail := []byte{0x48, 0x89, 0xEC, 0x5D, 0xC3}
	if !bytes.Equal(tail, wantTail) {
		t.Errorf("epilogue = %x, want %x", tail, wantTail)
	}
}
