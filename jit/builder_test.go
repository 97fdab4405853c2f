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
	"testing"
	"unsafe"
)

func funcvalOf(fn func(...uint64) uint64) uintptr {
	return *(*uintptr)(unsafe.Pointer(&fn))
}

// The callee may spill its slice header registers into the caller's
// frame right above SP. Staged arguments must survive that spill and
// arrive in the callee exactly as set.
func TestCallArgsReachCallee(t *testing.T) {
	var got []uint64
	fn := func(a ...uint64) uint64 {
		got = append([]uint64(nil), a...)
		var sum uint64
		for _, v := range a {
			sum += v
		}
		return sum
	}
	m := NewModule("test")
	b := m.NewBuilder("test")
	c := b.BeginCall(2)
	c.SetArg(0, Imm(5))
	c.SetArg(1, Imm(19))
	b.Return(c.Call(funcvalOf(fn)))
	entry, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if r := entry(); r != 24 {
		t.Errorf("call returned %d, want 24", r)
	}
	if len(got) != 2 || got[0] != 5 || got[1] != 19 {
		t.Errorf("callee saw %v, want [5 19]", got)
	}
}

func TestCallNoArgs(t *testing.T) {
	var n int
	fn := func(a ...uint64) uint64 {
		n = len(a)
		return 7
	}
	m := NewModule("test")
	b := m.NewBuilder("test")
	c := b.BeginCall(0)
	b.Return(c.Call(funcvalOf(fn)))
	entry, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if r := entry(); r != 7 {
		t.Errorf("call returned %d, want 7", r)
	}
	if n != 0 {
		t.Errorf("callee saw %d arguments, want 0", n)
	}
}

func TestNestedCallKeepsOuterArgs(t *testing.T) {
	inner := func(a ...uint64) uint64 {
		return a[0] + 1
	}
	outer := func(a ...uint64) uint64 {
		return a[0]*100 + a[1]
	}
	m := NewModule("test")
	b := m.NewBuilder("test")
	oc := b.BeginCall(2)
	oc.SetArg(0, Imm(3))
	ic := b.BeginCall(1)
	ic.SetArg(0, Imm(8))
	oc.SetArg(1, ic.Call(funcvalOf(inner)))
	b.Return(oc.Call(funcvalOf(outer)))
	entry, err := b.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if r := entry(); r != 309 {
		t.Errorf("nested call returned %d, want 309", r)
	}
}
