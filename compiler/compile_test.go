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
	"strings"
	"testing"

	"github.com/ZekeMedley/risp/jit"
	"github.com/ZekeMedley/risp/lisp"
)

func run(t *testing.T, src string) lisp.Word {
	t.Helper()
	program := lisp.ReadAll("test", src)
	m := jit.NewModule("test")
	entry, err := Compile(program, m)
	if err != nil {
		t.Fatal(err)
	}
	return lisp.Word(entry())
}

func compileErr(t *testing.T, src string) error {
	t.Helper()
	program := lisp.ReadAll("test", src)
	_, err := Compile(program, jit.NewModule("test"))
	if err == nil {
		t.Fatalf("%s compiled", src)
	}
	return err
}

func TestRunFixnum(t *testing.T) {
	if got := run(t, "42"); got != lisp.Encode(lisp.NewInt(42)) {
		t.Errorf("42 evaluated to %x", got)
	}
	if got := run(t, "-7"); got != lisp.Encode(lisp.NewInt(-7)) {
		t.Errorf("-7 evaluated to %x", got)
	}
}

func TestRunNil(t *testing.T) {
	if got := run(t, "()"); got != lisp.WordNil {
		t.Errorf("() evaluated to %x", got)
	}
	// empty program yields nil too
	if got := run(t, ""); got != lisp.WordNil {
		t.Errorf("empty program evaluated to %x", got)
	}
}

func TestRunLet(t *testing.T) {
	if got := run(t, "(let foo 5) foo"); got != lisp.Encode(lisp.NewInt(5)) {
		t.Errorf("let body evaluated to %x", got)
	}
	// let itself evaluates to the bound value
	if got := run(t, "(let foo 9)"); got != lisp.Encode(lisp.NewInt(9)) {
		t.Errorf("let evaluated to %x", got)
	}
}

func TestRunIf(t *testing.T) {
	cases := []struct {
		src  string
		want lisp.Word
	}{
		{"(if 1 2 3)", lisp.Encode(lisp.NewInt(2))},
		{"(if 0 2 3)", lisp.Encode(lisp.NewInt(3))},
		{"(if () 2 3)", lisp.Encode(lisp.NewInt(3))},
		{"(if 0 2)", lisp.WordNil},
		{"(let c 1) (if c (if 0 10 11) 12)", lisp.Encode(lisp.NewInt(11))},
	}
	for _, c := range cases {
		if got := run(t, c.src); got != c.want {
			t.Errorf("%s evaluated to %x, want %x", c.src, got, c.want)
		}
	}
}

func TestRunHoistedQuote(t *testing.T) {
	got := lisp.Decode(run(t, "(let foo (quote (2 3))) foo"))
	want := lisp.Read("test", "(2 (3 ()))")
	if !lisp.Equal(got, want) {
		t.Errorf("hoisted quote came back as %s, want %s", lisp.String(got), lisp.String(want))
	}
}

func TestRunHoistedString(t *testing.T) {
	got := lisp.Decode(run(t, `"hello"`))
	if !got.IsString() || got.String() != "hello" {
		t.Errorf("hoisted string came back as %s", lisp.String(got))
	}
}

func TestRunForeignCall(t *testing.T) {
	if got := run(t, "(+ 1 2)"); got != lisp.Encode(lisp.NewInt(3)) {
		t.Errorf("(+ 1 2) evaluated to %x", got)
	}
	// nested calls must not clobber the outer argument area
	if got := run(t, "(+ (+ 1 2) (- 10 4))"); got != lisp.Encode(lisp.NewInt(9)) {
		t.Errorf("nested calls evaluated to %x", got)
	}
	if got := run(t, "(car (cons 7 8))"); got != lisp.Encode(lisp.NewInt(7)) {
		t.Errorf("(car (cons 7 8)) evaluated to %x", got)
	}
	if got := run(t, "(eq 1 1)"); got != lisp.Encode(lisp.NewInt(1)) {
		t.Errorf("(eq 1 1) evaluated to %x", got)
	}
}

func TestRunQuotedSymbolArg(t *testing.T) {
	got := lisp.Decode(run(t, "(cdr (cons 1 (quote foo)))"))
	if !got.IsSymbol() || got.Symbol() != "foo" {
		t.Errorf("quoted symbol came back as %s", lisp.String(got))
	}
}

// A runtime type error in a builtin must come back as a recoverable
// panic after the compiled function returns, not kill the process.
func TestRunBuiltinPanicSurfaces(t *testing.T) {
	program := lisp.ReadAll("test", "(car 5)")
	entry, err := Compile(program, jit.NewModule("test"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("runtime type error did not surface")
		}
		if s, ok := r.(string); !ok || !strings.Contains(s, "car") {
			t.Errorf("surfaced panic %v does not name the builtin", r)
		}
	}()
	entry()
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		src    string
		substr string
	}{
		{"bar", "unbound symbol"},
		{"(frobnicate 1)", "unknown function"},
		{"(let 1 2)", "let takes"},
		{"(if 1)", "if takes"},
		{"(quote a b)", "quote takes exactly one argument"},
		{"(eq 1)", "eq takes"},
	}
	for _, c := range cases {
		err := compileErr(t, c.src)
		if !strings.Contains(err.Error(), c.substr) {
			t.Errorf("%s gave error %q, want %q inside", c.src, err, c.substr)
		}
	}
}
