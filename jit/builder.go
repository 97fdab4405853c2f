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

import "fmt"

// LocalID identifies a data symbol imported into one function.
type LocalID int32

const frameBytes = 256 // local slot area, 16-byte aligned
const maxSlots = frameBytes / 8

// Builder compiles one function into a module. Values returned from its
// operations live in registers, frame slots or immediates; registers are
// caller-saved under the Go ABI, so nothing may be held in a register
// across a foreign call — callers spill to slots or call-argument memory
// first.
type Builder struct {
	m        *Module
	FuncName string
	w        *Writer
	buf      []byte
	freeRegs uint64
	nextSlot int32
	imports  []DataID // LocalID → module DataID
}

// NewBuilder starts compiling a function into the module. The function
// prologue is emitted immediately.
func (m *Module) NewBuilder(funcName string) *Builder {
	buf := make([]byte, 16384)
	b := &Builder{
		m:        m,
		FuncName: funcName,
		w:        newWriter(buf),
		buf:      buf,
		freeRegs: allocatableRegs,
	}
	b.w.EmitPrologue(frameBytes)
	return b
}

// DeclareDataInFunc imports a module data symbol into this function and
// returns the function-scoped id.
func (b *Builder) DeclareDataInFunc(id DataID) (LocalID, error) {
	if _, err := b.m.object(id); err != nil {
		return 0, err
	}
	b.imports = append(b.imports, id)
	return LocalID(len(b.imports) - 1), nil
}

// SymbolValue materializes the address of an imported data symbol as a
// native-width value. The symbol must already be finalized.
func (b *Builder) SymbolValue(l LocalID) (Value, error) {
	if int(l) < 0 || int(l) >= len(b.imports) {
		return Value{}, fmt.Errorf("%s: unknown local symbol id %d", b.FuncName, l)
	}
	addr, err := b.m.DataAddress(b.imports[l])
	if err != nil {
		return Value{}, err
	}
	r := b.allocReg()
	b.w.EmitMovRegImm64(r, uint64(addr))
	return Value{Loc: LocReg, Reg: r}, nil
}

// Load dereferences a pointer value, reading one word.
func (b *Builder) Load(v Value) Value {
	r := b.valueToReg(&v)
	b.w.EmitLoadRegMem(r, r, 0)
	return Value{Loc: LocReg, Reg: r}
}

// Iconst yields a compile-time constant; no code is emitted until the
// value is consumed.
func (b *Builder) Iconst(imm uint64) Value { return Imm(imm) }

// valueToReg takes ownership of v and delivers it in a register.
func (b *Builder) valueToReg(v *Value) Reg {
	switch v.Loc {
	case LocReg:
		return v.Reg
	case LocImm:
		r := b.allocReg()
		b.w.EmitMovRegImm64(r, v.Imm)
		v.Loc = LocReg
		v.Reg = r
		return r
	case LocLocal:
		r := b.allocReg()
		b.w.EmitLoadLocal(r, v.Slot)
		v.Loc = LocReg
		v.Reg = r
		return r
	default:
		panic("jit: value has no location")
	}
}

// NewRegValue allocates a register for a join point (e.g. the result of
// a two-armed branch).
func (b *Builder) NewRegValue() Value {
	return Value{Loc: LocReg, Reg: b.allocReg()}
}

// MoveTo delivers src into the register held by dst.
func (b *Builder) MoveTo(dst Value, src Value) {
	if dst.Loc != LocReg {
		panic("jit: MoveTo destination must be a register")
	}
	r := b.valueToReg(&src)
	b.w.EmitMovRegReg(dst.Reg, r)
	b.Free(&src)
}

// AllocSlot reserves a frame slot for a local binding. Slots survive
// foreign calls; registers do not.
func (b *Builder) AllocSlot() (int32, error) {
	if b.nextSlot >= maxSlots {
		return 0, fmt.Errorf("%s: too many locals (max %d)", b.FuncName, maxSlots)
	}
	slot := b.nextSlot
	b.nextSlot++
	return slot, nil
}

// StoreSlot spills a value into a frame slot, consuming it.
func (b *Builder) StoreSlot(slot int32, v Value) {
	r := b.valueToReg(&v)
	b.w.EmitStoreLocal(slot, r)
	b.Free(&v)
}

// SlotValue reads back a frame slot.
func (b *Builder) SlotValue(slot int32) Value {
	return Value{Loc: LocLocal, Slot: slot}
}

// Labels and branches.

func (b *Builder) ReserveLabel() uint8 { return b.w.ReserveLabel() }
func (b *Builder) MarkLabel(id uint8)  { b.w.MarkLabel(id) }
func (b *Builder) Jump(id uint8)       { b.w.EmitJmp(id) }

// BranchIfFalse consumes v and jumps when it is falsy: the fixnum 0 or
// nil.
func (b *Builder) BranchIfFalse(v Value, label uint8) {
	r := b.valueToReg(&v)
	b.w.EmitCmpRegImm32(r, 0)
	b.w.EmitJcc(CcEq, label)
	b.w.EmitCmpRegImm32(r, 7) // inline nil constant
	b.w.EmitJcc(CcEq, label)
	b.Free(&v)
}

// callSpillBytes reserves the callee's argument spill slots at [SP+0].
// The internal ABI lets the callee spill its register arguments (the
// slice header: ptr, len, cap) into the caller's frame right above SP,
// so the staged words must live beyond those three slots.
const callSpillBytes = 24

// CallFrame stages the arguments of one foreign call in a dedicated
// stack area below the frame. Nested calls balance the stack pointer, so
// staging areas of enclosing calls stay addressable.
type CallFrame struct {
	b    *Builder
	n    int
	area int32
}

func (b *Builder) BeginCall(nargs int) *CallFrame {
	n := nargs
	if n == 0 {
		n = 1
	}
	area := int32(roundUp(callSpillBytes+n*8, 16))
	b.w.EmitSubSP(area)
	return &CallFrame{b: b, n: nargs, area: area}
}

// SetArg consumes v and stores it as argument i. Arguments must be set
// immediately after evaluation; only then is the value safe from the
// register clobbering of nested calls.
func (c *CallFrame) SetArg(i int, v Value) {
	r := c.b.valueToReg(&v)
	c.b.w.EmitStoreMemReg(regSPBase, callSpillBytes+int32(i*8), r)
	c.b.Free(&v)
}

// Call invokes a foreign function value (funcval is the address of the
// Go func value's code-pointer cell). The staged arguments become the
// variadic word slice; the word result lands in a fresh register.
func (c *CallFrame) Call(funcval uintptr) Value {
	w := c.b.w
	w.EmitLeaRegSP(regArg0, callSpillBytes)
	w.EmitMovRegImm64(regArg1, uint64(c.n))
	w.EmitMovRegImm64(regArg2, uint64(c.n))
	w.EmitMovRegImm64(regContext, uint64(funcval))
	w.EmitLoadRegMem(regScratch, regContext, 0)
	w.EmitCallReg(regScratch)
	w.EmitAddSP(c.area)
	r := c.b.allocReg()
	w.EmitMovRegReg(r, regReturn)
	return Value{Loc: LocReg, Reg: r}
}

// Return consumes v as the function result and emits the epilogue.
func (b *Builder) Return(v Value) {
	r := b.valueToReg(&v)
	b.w.EmitMovRegReg(regReturn, r)
	b.Free(&v)
	b.w.EmitEpilogue()
}

// Finish resolves branches, installs the machine code and returns the
// callable entry point.
func (b *Builder) Finish() (func() uint64, error) {
	b.w.ResolveFixups()
	addr, err := b.m.installCode(b.buf[:b.w.Len()])
	if err != nil {
		return nil, fmt.Errorf("installing %s: %w", b.FuncName, err)
	}
	return Entry(addr), nil
}

// Code returns the bytes emitted so far, for inspection in tests.
func (b *Builder) Code() []byte {
	return b.buf[:b.w.Len()]
}
