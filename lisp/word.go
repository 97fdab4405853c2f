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
package lisp

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"
)

// Word is the fixed-width universal value representation of the runtime.
// Small values are encoded inline, composite values as a tagged pointer
// into pinned cell memory.
type Word uint64

// Low 3 bits carry the word tag. Heap pointers are 8-byte aligned so the
// tag bits are free.
const (
	wordTagMask   Word = 0b111
	wordTagFixnum Word = 0b000 // value << 3, signed
	wordTagPair   Word = 0b001 // pointer to [2]Word cell: car, cdr
	wordTagString Word = 0b010 // pointer to block: length word + bytes
	wordTagSymbol Word = 0b011 // same block layout as string
	// WordNil is the inline nil/empty-list constant.
	WordNil Word = 0b111
)

// pins keeps every allocated cell and block reachable. Hoisted data lives
// for the lifetime of the compiled program, so nothing is ever released.
var pins struct {
	mu   sync.Mutex
	refs []unsafe.Pointer
}

func pin(p unsafe.Pointer) {
	pins.mu.Lock()
	pins.refs = append(pins.refs, p)
	pins.mu.Unlock()
}

func newPair(car, cdr Word) Word {
	cell := new([2]Word)
	cell[0] = car
	cell[1] = cdr
	pin(unsafe.Pointer(cell))
	return Word(uintptr(unsafe.Pointer(cell))) | wordTagPair
}

func newBlock(s string, tag Word) Word {
	blk := make([]uint64, 1+(len(s)+7)/8)
	blk[0] = uint64(len(s))
	if len(s) > 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(&blk[1])), len(s)), s)
	}
	pin(unsafe.Pointer(&blk[0]))
	return Word(uintptr(unsafe.Pointer(&blk[0]))) | tag
}

func blockString(w Word) string {
	p := unsafe.Pointer(uintptr(w &^ wordTagMask))
	n := *(*uint64)(p)
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Add(p, 8)), n))
}

// Encode converts an expression to its word representation. Lists become
// nil-terminated pair chains; the cells are allocated from pinned memory
// and handed over to the compiled program.
func Encode(e Expr) Word {
	switch e.GetTag() {
	case tagNil:
		return WordNil
	case tagInt:
		return Word(uint64(e.Int()) << 3)
	case tagString:
		return newBlock(e.String(), wordTagString)
	case tagSymbol:
		return newBlock(e.String(), wordTagSymbol)
	case tagList:
		slice := e.Slice()
		chain := WordNil
		for i := len(slice) - 1; i >= 0; i-- {
			chain = newPair(Encode(slice[i]), chain)
		}
		return chain
	default:
		panic(fmt.Sprintf("unknown tag %d in Encode", e.GetTag()))
	}
}

// Decode converts a word back into an expression. A pair decodes to the
// two-element list (car cdr), so encoded proper lists come back in cons
// shape: structural equivalence, not identity.
func Decode(w Word) Expr {
	if w == WordNil {
		return NewNil()
	}
	switch w & wordTagMask {
	case wordTagFixnum:
		return NewInt(int64(w) >> 3)
	case wordTagPair:
		cell := (*[2]Word)(unsafe.Pointer(uintptr(w &^ wordTagMask)))
		return NewList([]Expr{Decode(cell[0]), Decode(cell[1])})
	case wordTagString:
		return NewString(blockString(w))
	case wordTagSymbol:
		return NewSymbol(blockString(w))
	default:
		panic(fmt.Sprintf("corrupt word %#x in Decode", uint64(w)))
	}
}

// Bytes returns the native-endian serialization of the word, the payload
// the materializer hands to the backend.
func (w Word) Bytes() []byte {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], uint64(w))
	return buf[:]
}
