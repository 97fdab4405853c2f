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
	"fmt"
	"strconv"
	"unsafe"
)

// Expr is a compact tagged expression container (16 bytes).
type Expr struct {
	ptr *byte
	aux uint64 // type tag + extra data (len, etc.)
}

// Type tags (upper 16 bits of aux)
// a value is ALWAYS stored with the correct tag, so a tagList will never
// carry an integer payload
const (
	tagNil = iota
	tagInt
	tagString
	tagSymbol
	tagList
)

// Helpers
func makeAux(tag uint16, val uint64) uint64 {
	return uint64(tag)<<48 | (val & ((1 << 48) - 1))
}
func auxTag(aux uint64) uint16 { return uint16(aux >> 48) }
func auxVal(aux uint64) uint64 { return aux & ((1 << 48) - 1) }

//
// Constructors
//

func NewNil() Expr { return Expr{nil, makeAux(tagNil, 0)} }

func NewInt(i int64) Expr {
	return Expr{(*byte)(unsafe.Pointer(uintptr(i))), makeAux(tagInt, 0)}
}

func NewString(s string) Expr {
	if len(s) == 0 {
		return Expr{nil, makeAux(tagString, 0)}
	}
	return Expr{unsafe.StringData(s), makeAux(tagString, uint64(len(s)))}
}

func NewSymbol(sym string) Expr {
	if len(sym) == 0 {
		return Expr{nil, makeAux(tagSymbol, 0)}
	}
	return Expr{unsafe.StringData(sym), makeAux(tagSymbol, uint64(len(sym)))}
}

func NewList(list []Expr) Expr {
	if len(list) == 0 {
		return Expr{nil, makeAux(tagList, 0)}
	}
	data := unsafe.SliceData(list)
	return Expr{(*byte)(unsafe.Pointer(data)), makeAux(tagList, uint64(len(list)))}
}

//
// Accessors
//

func (e Expr) GetTag() uint16 { return auxTag(e.aux) }

func (e Expr) IsNil() bool { return auxTag(e.aux) == tagNil }

func (e Expr) IsInt() bool { return auxTag(e.aux) == tagInt }

func (e Expr) IsString() bool { return auxTag(e.aux) == tagString }

func (e Expr) IsSymbol() bool { return auxTag(e.aux) == tagSymbol }

func (e Expr) IsList() bool { return auxTag(e.aux) == tagList }

func (e Expr) SymbolEquals(name string) bool {
	return auxTag(e.aux) == tagSymbol && e.String() == name
}

func (e Expr) Int() int64 {
	if auxTag(e.aux) != tagInt {
		panic("not int")
	}
	return int64(uintptr(unsafe.Pointer(e.ptr)))
}

func (e Expr) String() string {
	switch auxTag(e.aux) {
	case tagString, tagSymbol:
		if e.ptr == nil {
			return ""
		}
		return unsafe.String(e.ptr, int(auxVal(e.aux)))
	case tagInt:
		return strconv.FormatInt(int64(uintptr(unsafe.Pointer(e.ptr))), 10)
	case tagNil:
		return "()"
	case tagList:
		return String(e)
	default:
		panic(fmt.Sprintf("unknown tag %d in String", auxTag(e.aux)))
	}
}

// Symbol returns the symbol value as Go string.
func (e Expr) Symbol() string {
	if auxTag(e.aux) != tagSymbol {
		panic("not symbol")
	}
	return e.String()
}

func (e Expr) Slice() []Expr {
	if auxTag(e.aux) != tagList {
		panic("not list")
	}
	ln := int(auxVal(e.aux))
	if ln == 0 || e.ptr == nil {
		return nil
	}
	return unsafe.Slice((*Expr)(unsafe.Pointer(e.ptr)), ln)
}

// Equal compares two expressions structurally.
func Equal(a, b Expr) bool {
	if auxTag(a.aux) != auxTag(b.aux) {
		return false
	}
	switch auxTag(a.aux) {
	case tagNil:
		return true
	case tagInt:
		return a.Int() == b.Int()
	case tagString, tagSymbol:
		return a.String() == b.String()
	case tagList:
		as, bs := a.Slice(), b.Slice()
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !Equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
