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
	"unsafe"

	"github.com/ZekeMedley/risp/jit"
	"github.com/ZekeMedley/risp/lisp"
)

// funcvalAddr returns the address of the funcval cell backing a Go
// function value. Generated code calls through it the way the Go ABI
// does: funcval in the context register, code pointer at offset 0.
func funcvalAddr(fn func(...lisp.Word) lisp.Word) uintptr {
	return *(*uintptr)(unsafe.Pointer(&fn))
}

// Compile lowers a program into the module: first all complex constants
// are hoisted into the data segment and resolved, then the toplevel
// forms are compiled as one function returning the value of the last
// form.
func Compile(program []lisp.Expr, m *jit.Module) (func() uint64, error) {
	data := CollectData(program)
	for _, d := range data {
		if err := CreateData(d, m); err != nil {
			return nil, fmt.Errorf("materializing %s: %w", d.Name, err)
		}
	}
	if err := ReplaceData(program, data); err != nil {
		return nil, err
	}

	ctx := &Context{Module: m, B: m.NewBuilder("main")}
	scope := make(map[string]int32)
	result := ctx.B.Iconst(uint64(lisp.WordNil))
	var err error
	lisp.Timeit("function compilation", func() {
		for _, e := range program {
			ctx.B.Free(&result)
			result, err = compileExpr(ctx, scope, e)
			if err != nil {
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	ctx.B.Return(result)
	entry, err := ctx.B.Finish()
	if err != nil {
		return nil, err
	}
	// panics raised inside foreign functions are captured at the
	// foreign boundary; rethrow them here, outside generated frames
	return func() uint64 {
		res := entry()
		if p := lisp.TakeForeignPanic(); p != nil {
			panic(p)
		}
		return res
	}, nil
}

func compileExpr(ctx *Context, scope map[string]int32, e lisp.Expr) (jit.Value, error) {
	b := ctx.B
	switch {
	case e.IsInt():
		return b.Iconst(uint64(lisp.Encode(e))), nil
	case e.IsNil():
		return b.Iconst(uint64(lisp.WordNil)), nil
	case e.IsString():
		// strings are hoisted before compilation starts
		return jit.Value{}, fmt.Errorf("string literal %q was not hoisted", e.String())
	case e.IsSymbol():
		name := e.Symbol()
		if slot, ok := scope[name]; ok {
			return b.SlotValue(slot), nil
		}
		if _, ok := ctx.Module.LookupData(name); ok {
			return EmitDataAccess(name, ctx)
		}
		return jit.Value{}, fmt.Errorf("unbound symbol %s", name)
	case e.IsList():
		return compileForm(ctx, scope, e)
	default:
		return jit.Value{}, fmt.Errorf("cannot compile %s", lisp.String(e))
	}
}

func compileForm(ctx *Context, scope map[string]int32, e lisp.Expr) (jit.Value, error) {
	b := ctx.B
	v := e.Slice()
	head := v[0]

	if head.SymbolEquals("quote") {
		if len(v) == 2 {
			return jit.Value{}, fmt.Errorf("quoted constant %s was not hoisted", lisp.String(e))
		}
		return jit.Value{}, fmt.Errorf("quote takes exactly one argument, got %s", lisp.String(e))
	}

	if head.SymbolEquals("let") {
		if len(v) != 3 || !v[1].IsSymbol() {
			return jit.Value{}, fmt.Errorf("let takes a symbol and a value, got %s", lisp.String(e))
		}
		val, err := compileExpr(ctx, scope, v[2])
		if err != nil {
			return jit.Value{}, err
		}
		slot, err := b.AllocSlot()
		if err != nil {
			return jit.Value{}, err
		}
		b.StoreSlot(slot, val)
		scope[v[1].Symbol()] = slot
		return b.SlotValue(slot), nil
	}

	if head.SymbolEquals("if") {
		if len(v) != 3 && len(v) != 4 {
			return jit.Value{}, fmt.Errorf("if takes a condition and one or two branches, got %s", lisp.String(e))
		}
		cond, err := compileExpr(ctx, scope, v[1])
		if err != nil {
			return jit.Value{}, err
		}
		elseLabel := b.ReserveLabel()
		endLabel := b.ReserveLabel()
		b.BranchIfFalse(cond, elseLabel)
		res := b.NewRegValue()
		then, err := compileExpr(ctx, scope, v[2])
		if err != nil {
			return jit.Value{}, err
		}
		b.MoveTo(res, then)
		b.Jump(endLabel)
		b.MarkLabel(elseLabel)
		alt := b.Iconst(uint64(lisp.WordNil))
		if len(v) == 4 {
			alt, err = compileExpr(ctx, scope, v[3])
			if err != nil {
				return jit.Value{}, err
			}
		}
		b.MoveTo(res, alt)
		b.MarkLabel(endLabel)
		return res, nil
	}

	if def, args, ok := lisp.IsForeignCall(e); ok {
		if len(args) < def.MinParameter || len(args) > def.MaxParameter {
			return jit.Value{}, fmt.Errorf("%s takes %d to %d arguments, got %d", def.Name, def.MinParameter, def.MaxParameter, len(args))
		}
		frame := b.BeginCall(len(args))
		for i, arg := range args {
			val, err := compileExpr(ctx, scope, arg)
			if err != nil {
				return jit.Value{}, err
			}
			frame.SetArg(i, val)
		}
		return frame.Call(funcvalAddr(def.Fn)), nil
	}

	if head.IsSymbol() {
		return jit.Value{}, fmt.Errorf("unknown function %s", head.Symbol())
	}
	return jit.Value{}, fmt.Errorf("cannot call %s", lisp.String(head))
}
