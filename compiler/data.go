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
package compiler

import (
	"fmt"

	"github.com/ZekeMedley/risp/jit"
	"github.com/ZekeMedley/risp/lisp"
)

/*
Constant hoisting runs before any function is compiled. Complex
constants, meaning constants that do not fit in a machine word, are
pulled out of the program into the module's data segment and replaced
in the tree with a symbol reference. Function compilation then only
ever sees word-sized immediates and symbols that resolve to finalized
data addresses.

Complex constants are exactly two shapes: a two element quote form
(quote <payload>), whose payload is encoded as a heap value, and a
string literal, encoded the same way. Everything else stays inline.
*/

// Data is one hoisted constant: the data-segment symbol it will live
// under and the encoded word that heads its heap representation.
type Data struct {
	Name string
	Data lisp.Word
}

// IsComplexConst classifies an expression. On a hit it returns the
// encoded heap word for the constant's payload. Classification looks at
// the node alone, so calling it twice on the same expression yields the
// same verdict (the encoded words differ per call, each encoding pins
// fresh cells).
func IsComplexConst(e lisp.Expr) (lisp.Word, bool) {
	if e.IsList() {
		v := e.Slice()
		if len(v) == 2 && v[0].SymbolEquals("quote") {
			return lisp.Encode(v[1]), true
		}
		return 0, false
	}
	if e.IsString() {
		return lisp.Encode(e), true
	}
	return 0, false
}

// forEachComplexConst is the one traversal both hoisting passes run.
// Complex constants are visited in preorder, left to right across the
// toplevel forms, and handle is called once per hit. A classified node
// is never descended into, so constants nested inside a hoisted
// payload do not produce extra hits. Foreign call arguments are scanned
// through a recursive invocation rather than by descending, which keeps
// the call head itself out of classification.
func forEachComplexConst(program []lisp.Expr, handle func(node *lisp.Expr, w lisp.Word)) {
	for i := range program {
		lisp.PreorderMut(&program[i], func(e *lisp.Expr) lisp.PreorderStatus {
			if _, args, ok := lisp.IsForeignCall(*e); ok {
				forEachComplexConst(args, handle)
				return lisp.PreorderSkip
			}
			if w, ok := IsComplexConst(*e); ok {
				handle(e, w)
				return lisp.PreorderSkip
			}
			return lisp.PreorderContinue
		})
	}
}

// CollectData walks the program and returns its complex constants as an
// ordered table. The i-th hit is named anon_data_<i>; names restart at
// zero for every call, so one program goes into one module.
func CollectData(program []lisp.Expr) []Data {
	var res []Data
	lisp.Timeit("data collection", func() {
		forEachComplexConst(program, func(_ *lisp.Expr, w lisp.Word) {
			res = append(res, Data{Name: fmt.Sprintf("anon_data_%d", len(res)), Data: w})
		})
	})
	return res
}

// ReplaceData rewrites the program in place, substituting each complex
// constant with a symbol naming its table entry, consumed strictly in
// order. The table must come from CollectData over the identical
// program. Both passes share forEachComplexConst so they cannot visit
// different nodes, but a mismatch is still checked and reported rather
// than silently binding constants to the wrong names.
func ReplaceData(program []lisp.Expr, data []Data) error {
	count := 0
	lisp.Timeit("data replacement", func() {
		forEachComplexConst(program, func(e *lisp.Expr, _ lisp.Word) {
			if count < len(data) {
				*e = lisp.NewSymbol(data[count].Name)
			}
			count++
		})
	})
	if count != len(data) {
		return fmt.Errorf("data replacement found %d complex constants but the table holds %d", count, len(data))
	}
	return nil
}

// CreateData hands one hoisted constant to the module: declare the
// symbol, define its contents, and resolve it to a data segment address
// immediately.
// NOTE: resolving here is only safe so long as all data is created
// before any function is compiled.
func CreateData(d Data, m *jit.Module) error {
	id, err := m.DeclareData(d.Name)
	if err != nil {
		return err
	}
	if err := m.DefineData(id, d.Data.Bytes()); err != nil {
		return err
	}
	return m.FinalizeDefinitions()
}

// EmitDataAccess emits the code that reads a hoisted constant inside
// the function under construction: import the symbol into the function,
// materialize its address, and load the word stored there.
func EmitDataAccess(name string, ctx *Context) (jit.Value, error) {
	id, err := ctx.Module.DeclareData(name)
	if err != nil {
		return jit.Value{}, err
	}
	local, err := ctx.B.DeclareDataInFunc(id)
	if err != nil {
		return jit.Value{}, err
	}
	addr, err := ctx.B.SymbolValue(local)
	if err != nil {
		return jit.Value{}, err
	}
	return ctx.B.Load(addr), nil
}
