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

// ARM64 register constants for the Go register ABI.
//
// Go register ABI (arm64): args in R0-R15
// Variadic args: R0=slice_ptr, R1=slice_len, R2=slice_cap
// R26 is the closure context register, R28 holds the goroutine pointer,
// R18 is the platform register, R16/R17 are the linker scratch pair.
const (
	RegX0  Reg = 0
	RegX1  Reg = 1
	RegX2  Reg = 2
	RegX3  Reg = 3
	RegX4  Reg = 4
	RegX5  Reg = 5
	RegX6  Reg = 6
	RegX7  Reg = 7
	RegX8  Reg = 8
	RegX9  Reg = 9
	RegX10 Reg = 10
	RegX11 Reg = 11
	RegX12 Reg = 12
	RegX13 Reg = 13
	RegX14 Reg = 14
	RegX15 Reg = 15
	RegX16 Reg = 16
	RegX19 Reg = 19
	RegX20 Reg = 20
	RegX21 Reg = 21
	RegX22 Reg = 22
	RegX23 Reg = 23
	RegX24 Reg = 24
	RegX25 Reg = 25
	RegX26 Reg = 26
	RegX29 Reg = 29
	RegX30 Reg = 30
	RegSP  Reg = 31
)

const (
	regReturn  = RegX0
	regScratch = RegX16
	regContext = RegX26
	regSPBase  = RegSP

	// variadic slice header registers: ptr, len, cap
	regArg0 = RegX0
	regArg1 = RegX1
	regArg2 = RegX2
)

// allocatableRegs excludes R0-R2 (call arguments and return), the
// scratch/platform/context/g registers and the frame registers.
const allocatableRegs uint64 = 1<<uint(RegX3) | 1<<uint(RegX4) |
	1<<uint(RegX5) | 1<<uint(RegX6) | 1<<uint(RegX7) | 1<<uint(RegX8) |
	1<<uint(RegX9) | 1<<uint(RegX10) | 1<<uint(RegX11) | 1<<uint(RegX12) |
	1<<uint(RegX13) | 1<<uint(RegX14) | 1<<uint(RegX15) |
	1<<uint(RegX19) | 1<<uint(RegX20) | 1<<uint(RegX21) |
	1<<uint(RegX22) | 1<<uint(RegX23) | 1<<uint(RegX24) | 1<<uint(RegX25)

// Condition codes for EmitJcc (B.cond cond field).
const (
	CcEq byte = 0x0
	CcNe byte = 0x1
)

// Fixup kinds for branch patching.
const (
	fixupImm19 uint8 = 19 // B.cond
	fixupImm26 uint8 = 26 // B
)

// EmitMovRegImm64 emits MOVZ + MOVK sequence for a 64-bit immediate.
func (w *Writer) EmitMovRegImm64(dst Reg, imm uint64) {
	w.emitU32(0xD2800000 | uint32(imm&0xFFFF)<<5 | uint32(dst))
	w.emitU32(0xF2A00000 | uint32(imm>>16&0xFFFF)<<5 | uint32(dst))
	w.emitU32(0xF2C00000 | uint32(imm>>32&0xFFFF)<<5 | uint32(dst))
	w.emitU32(0xF2E00000 | uint32(imm>>48&0xFFFF)<<5 | uint32(dst))
}

// EmitMovRegReg emits MOV dst, src (ORR dst, XZR, src).
func (w *Writer) EmitMovRegReg(dst, src Reg) {
	if dst == src {
		return
	}
	w.emitU32(0xAA000000 | uint32(src)<<16 | 31<<5 | uint32(dst))
}

// EmitLoadRegMem emits a one-word load from [base+disp].
func (w *Writer) EmitLoadRegMem(dst, base Reg, disp int32) {
	if disp >= 0 && disp%8 == 0 && disp/8 < 1<<12 {
		w.emitU32(0xF9400000 | uint32(disp/8)<<10 | uint32(base)<<5 | uint32(dst))
		return
	}
	if disp < -256 || disp > 255 {
		panic("jit: load displacement out of range")
	}
	w.emitU32(0xF8400000 | uint32(uint16(disp)&0x1FF)<<12 | uint32(base)<<5 | uint32(dst))
}

// EmitStoreMemReg emits a one-word store to [base+disp].
func (w *Writer) EmitStoreMemReg(base Reg, disp int32, src Reg) {
	if disp >= 0 && disp%8 == 0 && disp/8 < 1<<12 {
		w.emitU32(0xF9000000 | uint32(disp/8)<<10 | uint32(base)<<5 | uint32(src))
		return
	}
	if disp < -256 || disp > 255 {
		panic("jit: store displacement out of range")
	}
	w.emitU32(0xF8000000 | uint32(uint16(disp)&0x1FF)<<12 | uint32(base)<<5 | uint32(src))
}

// EmitCmpRegImm32 emits CMP reg, #imm (SUBS XZR, reg, #imm).
func (w *Writer) EmitCmpRegImm32(reg Reg, imm int32) {
	if imm < 0 || imm >= 1<<12 {
		panic("jit: compare immediate out of range")
	}
	w.emitU32(0xF100001F | uint32(imm)<<10 | uint32(reg)<<5)
}

// EmitJcc emits B.cond to a label.
func (w *Writer) EmitJcc(cc byte, labelID uint8) {
	w.AddFixup(labelID, fixupImm19, true)
	w.emitU32(0x54000000 | uint32(cc))
}

// EmitJmp emits B to a label.
func (w *Writer) EmitJmp(labelID uint8) {
	w.AddFixup(labelID, fixupImm26, true)
	w.emitU32(0x14000000)
}

// EmitCallReg emits BLR reg.
func (w *Writer) EmitCallReg(reg Reg) {
	w.emitU32(0xD63F0000 | uint32(reg)<<5)
}

// EmitSubSP / EmitAddSP adjust the stack pointer around call argument
// areas. Balanced pairs keep frame-pointer-relative local slots valid.
// The adjustment is a single ADD/SUB immediate, so it is limited to the
// 12-bit field.
func (w *Writer) EmitSubSP(n int32) {
	if n < 0 || n >= 1<<12 {
		panic("jit: stack adjustment out of range")
	}
	w.emitU32(0xD1000000 | uint32(n)<<10 | 31<<5 | 31)
}

func (w *Writer) EmitAddSP(n int32) {
	if n < 0 || n >= 1<<12 {
		panic("jit: stack adjustment out of range")
	}
	w.emitU32(0x91000000 | uint32(n)<<10 | 31<<5 | 31)
}

// EmitLeaRegSP emits ADD dst, SP, #disp.
func (w *Writer) EmitLeaRegSP(dst Reg, disp int32) {
	if disp < 0 || disp >= 1<<12 {
		panic("jit: stack offset out of range")
	}
	w.emitU32(0x91000000 | uint32(disp)<<10 | 31<<5 | uint32(dst))
}

// EmitPrologue sets up the frame: STP X29, X30, [SP, #-16]!;
// MOV X29, SP; SUB SP, frame. Local slot i lives at [X29-8*(i+1)].
func (w *Writer) EmitPrologue(frame int32) {
	w.emitU32(0xA9BF7BFD)
	w.emitU32(0x910003FD)
	w.EmitSubSP(frame)
}

// EmitEpilogue tears the frame down and returns.
func (w *Writer) EmitEpilogue() {
	w.emitU32(0x910003BF) // MOV SP, X29
	w.emitU32(0xA8C17BFD) // LDP X29, X30, [SP], #16
	w.emitU32(0xD65F03C0) // RET
}

// EmitLoadLocal / EmitStoreLocal access frame slot i at [X29-8*(i+1)].
func (w *Writer) EmitLoadLocal(dst Reg, slot int32) {
	w.EmitLoadRegMem(dst, RegX29, -8*(slot+1))
}

func (w *Writer) EmitStoreLocal(slot int32, src Reg) {
	w.EmitStoreMemReg(RegX29, -8*(slot+1), src)
}

// patchFixup encodes the branch offset into the instruction recorded at
// the fixup position.
func (w *Writer) patchFixup(f *Fixup, targetPos int32) {
	patchAddr := unsafe.Add(w.Start, int(f.CodePos))
	insn := *(*uint32)(patchAddr)
	offset := (targetPos - f.CodePos) / 4
	switch f.Size {
	case fixupImm19:
		insn |= uint32(offset&0x7FFFF) << 5
	case fixupImm26:
		insn |= uint32(offset & 0x3FFFFFF)
	default:
		panic("jit: unknown fixup kind")
	}
	*(*uint32)(patchAddr) = insn
}
