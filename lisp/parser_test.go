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
	"strings"
	"testing"
)

func TestReadSerializeRoundTrip(t *testing.T) {
	cases := []string{
		"42",
		"-17",
		"foo",
		"\"hello world\"",
		"()",
		"(1 2 3)",
		"(let foo (quote (2 3)))",
		"(if (eq a b) 1 0)",
		"(quote (1 (2 3) \"x\"))",
	}
	for _, src := range cases {
		e := Read("test", src)
		var sb strings.Builder
		Serialize(&sb, e)
		if sb.String() != src {
			t.Errorf("Read(%q) serialized as %q", src, sb.String())
		}
	}
}

func TestReadQuoteSugar(t *testing.T) {
	e := Read("test", "'(1 2)")
	if got := String(e); got != "(quote (1 2))" {
		t.Errorf("quote sugar read as %s", got)
	}
}

func TestReadComments(t *testing.T) {
	prog := ReadAll("test", "/* block comment */ 1 2 /* trailing */")
	if len(prog) != 2 {
		t.Fatalf("expected 2 toplevel forms, got %d", len(prog))
	}
	if prog[0].Int() != 1 || prog[1].Int() != 2 {
		t.Errorf("comments changed values: %s %s", String(prog[0]), String(prog[1]))
	}
}

func TestReadEmptyListIsNil(t *testing.T) {
	e := Read("test", "()")
	if !e.IsNil() {
		t.Errorf("() should read as nil, got tag %d", e.GetTag())
	}
}

func mustPanic(t *testing.T, substr string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q", substr)
		}
		s, ok := r.(string)
		if !ok {
			t.Fatalf("panic value is not a string: %v", r)
		}
		if !strings.Contains(s, substr) {
			t.Fatalf("panic %q does not contain %q", s, substr)
		}
	}()
	f()
}

func TestReadUnbalanced(t *testing.T) {
	mustPanic(t, "expecting matching )", func() { Read("test", "(1 2") })
}

func TestReadUnterminatedString(t *testing.T) {
	mustPanic(t, "unterminated string", func() { Read("test", "\"abc") })
}

func TestReadFixnumRange(t *testing.T) {
	// 2^60 does not fit in a 61-bit fixnum
	mustPanic(t, "fixnum", func() { Read("test", "1152921504606846976") })
	// 2^60-1 does
	e := Read("test", "1152921504606846975")
	if e.Int() != 1152921504606846975 {
		t.Errorf("largest fixnum misread as %d", e.Int())
	}
}
