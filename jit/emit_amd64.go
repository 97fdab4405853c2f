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

// AMD64 register constants for the Go register ABI.
//
// Go register ABI (amd64): args in RAX, RBX, RCX, RDX, RSI, RDI, R8-R11
// Variadic args: RAX=slice_ptr, RBX=slice_len, RCX=slice_cap
// RDX is the closure context register, R14 holds the goroutine pointer.
const (
	RegRAX Reg = 0
	RegRCX Reg = 1
	RegRDX Reg = 2
	RegRBX Reg = 3
	RegRSP Reg = 4
	RegRBP Reg = 5
	RegRSI Reg = 6
	RegRDI Reg = 7
	RegR8  Reg = 8
	RegR9  Reg = 9
	RegR10 Reg = 10
	RegR11 Reg = 11
	RegR12 Reg = 12
	RegR13 Reg = 13
	RegR14 Reg = 14
	RegR15 Reg = 15
)

const (
	regReturn  = RegRAX // word return value
	regScratch = RegR11 // reserved for emit helpers
	regContext = RegRDX // closure context for foreign calls
	regSPBase  = RegRSP // stack pointer as load/store base

	// variadic slice header registers: ptr, len, cap
	regArg0 = RegRAX
	regArg1 = RegRBX
	regArg2 = RegRCX
)

// allocatableRegs excludes RAX/RBX/RCX (call argument and return
// registers), RDX (context), RSP/RBP (stack), R11 (scratch), R14 (g).
const allocatableRegs uint64 = 1<<uint(RegRSI) | 1<<uint(RegRDI) |
	1<<uint(RegR8) | 1<<uint(RegR9) | 1<<uint(RegR10) |
	1<<uint(RegR12) | 1<<uint(RegR13) | 1<<uint(RegR15)

// Condition codes for EmitJcc.
const (
	CcEq byte = 0x4
	CcNe byte = 0x5
)

func rexFor(w bool, reg, rm Reg) byte {
	rex := byte(0x40)
	if w {
		rex |= 0x08
	}
	if reg >= 8 {
		rex |= 0x04
	}
	if rm >= 8 {
		rex |= 0x01
	}
	return rex
}

// EmitMovRegImm64 emits MOV dst, imm64.
func (w *Writer) EmitMovRegImm64(dst Reg, imm uint64) {
	w.emitBytes(rexFor(true, 0, dst), 0xB8+byte(dst&7))
	w.emitU64(imm)
}

// EmitMovRegReg emits MOV dst, src.
func (w *Writer) EmitMovRegReg(dst, src Reg) {
	if dst == src {
		return
	}
	w.emitBytes(rexFor(true, src, dst), 0x89, 0xC0|byte(src&7)<<3|byte(dst&7))
}

// emitRegMemOp emits opcode with reg and [base+disp32], handling the SIB
// byte RSP-based addressing needs.
func (w *Writer) emitRegMemOp(opcode byte, reg, base Reg, disp int32) {
	w.emitBytes(rexFor(true, reg, base), opcode, 0x80|byte(reg&7)<<3|byte(base&7))
	if base&7 == 4 { // RSP/R12 need a SIB byte
		w.emitByte(0x24)
	}
	w.emitU32(uint32(disp))
}

// EmitLoadRegMem emits MOV dst, [base+disp] — one word.
func (w *Writer) EmitLoadRegMem(dst, base Reg, disp int32) {
	w.emitRegMemOp(0x8B, dst, base, disp)
}

// EmitStoreMemReg emits MOV [base+disp], src.
func (w *Writer) EmitStoreMemReg(base Reg, disp int32, src Reg) {
	w.emitRegMemOp(0x89, src, base, disp)
}

// EmitCmpRegImm32 emits CMP reg, imm32.
func (w *Writer) EmitCmpRegImm32(reg Reg, imm int32) {
	w.emitBytes(rexFor(true, 0, reg), 0x81, 0xF8|byte(reg&7))
	w.emitU32(uint32(imm))
}

// EmitJcc emits a conditional rel32 jump to a label.
func (w *Writer) EmitJcc(cc byte, labelID uint8) {
	w.emitBytes(0x0F, 0x80|cc)
	w.AddFixup(labelID, 4, true)
	w.emitU32(0)
}

// EmitJmp emits an unconditional rel32 jump to a label.
func (w *Writer) EmitJmp(labelID uint8) {
	w.emitByte(0xE9)
	w.AddFixup(labelID, 4, true)
	w.emitU32(0)
}

// EmitCallReg emits CALL reg.
func (w *Writer) EmitCallReg(reg Reg) {
	if reg >= 8 {
		w.emitByte(0x41)
	}
	w.emitBytes(0xFF, 0xD0|byte(reg&7))
}

// EmitSubSP / EmitAddSP adjust the stack pointer around call argument
// areas. Balanced pairs keep RBP-relative local slots valid.
func (w *Writer) EmitSubSP(n int32) {
	w.emitBytes(0x48, 0x81, 0xEC)
	w.emitU32(uint32(n))
}

func (w *Writer) EmitAddSP(n int32) {
	w.emitBytes(0x48, 0x81, 0xC4)
	w.emitU32(uint32(n))
}

// EmitLeaRegSP emits LEA dst, [RSP+disp].
func (w *Writer) EmitLeaRegSP(dst Reg, disp int32) {
	w.emitBytes(rexFor(true, dst, RegRSP), 0x8D, 0x80|byte(dst&7)<<3|0x04, 0x24)
	w.emitU32(uint32(disp))
}

// EmitPrologue sets up the frame: PUSH RBP; MOV RBP, RSP; SUB RSP, frame.
// Local slot i lives at [RBP-8*(i+1)].
func (w *Writer) EmitPrologue(frame int32) {
	w.emitByte(0x55)
	w.emitBytes(0x48, 0x89, 0xE5)
	w.EmitSubSP(frame)
}

// EmitEpilogue tears the frame down and returns.
func (w *Writer) EmitEpilogue() {
	w.emitBytes(0x48, 0x89, 0xEC) // MOV RSP, RBP
	w.emitByte(0x5D)              // POP RBP
	w.emitByte(0xC3)              // RET
}

// EmitLoadLocal / EmitStoreLocal access frame slot i at [RBP-8*(i+1)].
func (w *Writer) EmitLoadLocal(dst Reg, slot int32) {
	w.EmitLoadRegMem(dst, RegRBP, -8*(slot+1))
}

func (w *Writer) EmitStoreLocal(slot int32, src Reg) {
	w.EmitStoreMemReg(RegRBP, -8*(slot+1), src)
}

// patchFixup writes the rel32/abs32 displacement recorded at the fixup
// position.
func (w *Writer) patchFixup(f *Fixup, targetPos int32) {
	patchAddr := unsafe.Add(w.Start, int(f.CodePos))
	if f.Relative {
		*(*int32)(patchAddr) = targetPos - (f.CodePos + int32(f.Size))
	} else {
		*(*int32)(patchAddr) = targetPos
	}
}
