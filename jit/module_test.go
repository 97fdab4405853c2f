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
	"strings"
	"testing"
	"unsafe"
)

func TestDeclareDataIdempotent(t *testing.T) {
	m := NewModule("test")
	a, err := m.DeclareData("sym")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.DeclareData("sym")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same name gave ids %d and %d", a, b)
	}
	if _, err := m.DeclareData(""); err == nil {
		t.Errorf("empty symbol name accepted")
	}
}

func TestDefineDataTwice(t *testing.T) {
	m := NewModule("test")
	id, _ := m.DeclareData("sym")
	if err := m.DefineData(id, []byte{1}); err != nil {
		t.Fatal(err)
	}
	if err := m.DefineData(id, []byte{2}); err == nil {
		t.Errorf("duplicate definition accepted")
	}
	if err := m.DefineData(99, []byte{1}); err == nil {
		t.Errorf("unknown id accepted")
	}
}

func TestFinalizeUndefined(t *testing.T) {
	m := NewModule("test")
	m.DeclareData("ghost")
	err := m.FinalizeDefinitions()
	if err == nil {
		t.Fatal("finalize accepted an undefined symbol")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error does not name the symbol: %v", err)
	}
}

func TestFinalizeWritesContents(t *testing.T) {
	m := NewModule("test")
	contents := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	id, _ := m.DeclareData("sym")
	if err := m.DefineData(id, contents); err != nil {
		t.Fatal(err)
	}
	if _, err := m.DataAddress(id); err == nil {
		t.Fatal("address handed out before finalization")
	}
	if err := m.FinalizeDefinitions(); err != nil {
		t.Fatal(err)
	}
	addr, err := m.DataAddress(id)
	if err != nil {
		t.Fatal(err)
	}
	got := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(contents))
	if !bytes.Equal(got, contents) {
		t.Errorf("segment holds %v, want %v", got, contents)
	}
}

// Addresses are stable: finalizing more definitions must not move
// already resolved objects.
func TestFinalizeIncremental(t *testing.T) {
	m := NewModule("test")
	a, _ := m.DeclareData("a")
	m.DefineData(a, []byte{1, 1, 1})
	if err := m.FinalizeDefinitions(); err != nil {
		t.Fatal(err)
	}
	addrA, _ := m.DataAddress(a)

	b, _ := m.DeclareData("b")
	m.DefineData(b, []byte{2, 2, 2})
	if err := m.FinalizeDefinitions(); err != nil {
		t.Fatal(err)
	}
	if got, _ := m.DataAddress(a); got != addrA {
		t.Errorf("finalize moved a from %x to %x", addrA, got)
	}
	addrB, _ := m.DataAddress(b)
	if addrB == addrA {
		t.Errorf("a and b share an address")
	}
	if addrA%8 != 0 || addrB%8 != 0 {
		t.Errorf("data not 8-aligned: %x %x", addrA, addrB)
	}
}

func TestModuleIDsDiffer(t *testing.T) {
	if NewModule("a").ID == NewModule("b").ID {
		t.Errorf("two modules share an id")
	}
}
