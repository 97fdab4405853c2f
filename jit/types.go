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

// Reg represents a hardware register index. The actual register constants
// (RAX, R8, X0, etc.) are defined in architecture-specific files.
type Reg uint8

// Loc describes where a value resides during compilation.
type Loc uint8

const (
	LocNone  Loc = iota // Not yet assigned
	LocReg              // In a register (Reg)
	LocImm              // Compile-time constant (Imm) — no code emitted yet
	LocLocal            // In a frame slot (Slot)
)

// Value describes one word-sized generated value: its storage location
// during function compilation. Values returned by Builder operations are
// operands for further operations.
type Value struct {
	Loc  Loc
	Reg  Reg
	Slot int32  // frame slot index (if Loc == LocLocal)
	Imm  uint64 // compile-time constant (if Loc == LocImm)
}

// Imm builds an immediate value descriptor.
func Imm(v uint64) Value { return Value{Loc: LocImm, Imm: v} }

// allocReg picks a free register from the bitmap and marks it used.
func (b *Builder) allocReg() Reg {
	if b.freeRegs == 0 {
		panic("jit: no free registers")
	}
	// find lowest set bit
	bit := b.freeRegs & (-b.freeRegs)
	b.freeRegs &^= bit
	r := Reg(0)
	for x := bit; x > 1; x >>= 1 {
		r++
	}
	return r
}

// freeReg returns a register to the free pool.
func (b *Builder) freeReg(r Reg) {
	b.freeRegs |= 1 << uint(r)
}

// Free releases any register held by a value descriptor. Consumers of a
// value call this once the value is no longer needed.
func (b *Builder) Free(v *Value) {
	if v.Loc == LocReg {
		b.freeReg(v.Reg)
	}
	v.Loc = LocNone
}
