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
	"os"
	"path/filepath"
	"strings"
	"unsafe"
)

// Declaration describes a foreign function: a routine implemented in the
// host and linked directly into generated programs. Calls to declared
// names compile to native calls instead of Lisp code.
type Declaration struct {
	Name         string
	Desc         string
	MinParameter int
	MaxParameter int
	Params       []DeclarationParameter
	Returns      string // word | int | pair | string | nil
	Fn           func(...Word) Word
}

type DeclarationParameter struct {
	Name string
	Type string // word | int | pair | string | nil
	Desc string
}

var declaration_titles []string
var declarations map[string]*Declaration = make(map[string]*Declaration)

func DeclareTitle(title string) {
	declaration_titles = append(declaration_titles, "#"+title)
}

// pendingPanic holds the first panic captured at the foreign boundary,
// until the compiled function has returned and it can be rethrown.
var pendingPanic any

// TakeForeignPanic returns and clears the panic captured during the
// last run of a compiled function, if any.
func TakeForeignPanic() any {
	p := pendingPanic
	pendingPanic = nil
	return p
}

func Declare(def *Declaration) {
	fn := def.Fn
	// The runtime cannot unwind generated frames, so a panic must not
	// escape a foreign function into compiled code. Capture it here;
	// execution continues with nil until the compiled function returns
	// and the caller rethrows it.
	def.Fn = func(a ...Word) (res Word) {
		defer func() {
			if r := recover(); r != nil {
				if pendingPanic == nil {
					pendingPanic = r
				}
				res = WordNil
			}
		}()
		return fn(a...)
	}
	declaration_titles = append(declaration_titles, def.Name)
	declarations[def.Name] = def
}

// LookupForeign returns the declaration for a foreign function name.
func LookupForeign(name string) (*Declaration, bool) {
	def, ok := declarations[name]
	return def, ok
}

// IsForeignCall reports whether e is a call to a declared foreign
// function and returns its argument list. The args slice aliases the
// call expression, so rewriting an argument rewrites the call.
func IsForeignCall(e Expr) (def *Declaration, args []Expr, ok bool) {
	if !e.IsList() {
		return nil, nil, false
	}
	list := e.Slice()
	if len(list) == 0 || !list[0].IsSymbol() {
		return nil, nil, false
	}
	def, found := declarations[list[0].String()]
	if !found {
		return nil, nil, false
	}
	return def, list[1:], true
}

// Help lists all foreign functions or prints help for one of them.
func Help(fn string) {
	if fn == "" {
		for _, t := range declaration_titles {
			if strings.HasPrefix(t, "#") {
				fmt.Println()
				fmt.Println("---" + t[1:] + "---")
				continue
			}
			if def, ok := declarations[t]; ok {
				fmt.Println(t + ": " + def.Desc)
			}
		}
		return
	}
	def, ok := declarations[fn]
	if !ok {
		fmt.Println("unknown function " + fn)
		return
	}
	fmt.Println(def.Name + ": " + def.Desc)
	for _, p := range def.Params {
		fmt.Println("  " + p.Name + " (" + p.Type + "): " + p.Desc)
	}
	fmt.Println("  returns " + def.Returns)
}

// slugify makes a filesystem-safe, lowercase slug from a chapter title.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" {
		out = "chapter"
	}
	return out
}

// WriteDocumentation generates Markdown docs:
// - index.md with links to chapters
// - one <chapter>.md file per chapter, containing all foreign functions
//   of that chapter
func WriteDocumentation(folder string) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", folder, err)
	}

	type Chapter struct {
		Title string
		Slug  string
		Fns   []*Declaration
	}

	var chapters []*Chapter
	var current *Chapter

	for _, t := range declaration_titles {
		if len(t) > 0 && t[0] == '#' {
			title := strings.TrimSpace(t[1:])
			ch := &Chapter{Title: title, Slug: slugify(title)}
			chapters = append(chapters, ch)
			current = ch
			continue
		}
		def, ok := declarations[t]
		if !ok {
			continue
		}
		if current == nil {
			current = &Chapter{Title: "General", Slug: slugify("General")}
			chapters = append(chapters, current)
		}
		current.Fns = append(current.Fns, def)
	}

	var index strings.Builder
	index.WriteString("# Foreign function reference\n\n")
	for _, ch := range chapters {
		index.WriteString("- [" + ch.Title + "](" + ch.Slug + ".md)\n")

		var doc strings.Builder
		doc.WriteString("# " + ch.Title + "\n")
		for _, def := range ch.Fns {
			doc.WriteString("\n## " + def.Name + "\n\n" + def.Desc + "\n")
			for _, p := range def.Params {
				doc.WriteString("\n- `" + p.Name + "` (" + p.Type + "): " + p.Desc)
			}
			doc.WriteString("\n\nReturns: " + def.Returns + "\n")
		}
		if err := os.WriteFile(filepath.Join(folder, ch.Slug+".md"), []byte(doc.String()), 0o644); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(folder, "index.md"), []byte(index.String()), 0o644)
}

func init() {
	DeclareTitle("Runtime")

	Declare(&Declaration{
		"println", "Prints values to stdout, decoded from their word representation",
		1, 1000,
		[]DeclarationParameter{
			{"value...", "word", "values to print"},
		}, "nil",
		func(a ...Word) Word {
			parts := make([]string, len(a))
			for i, w := range a {
				parts[i] = String(Decode(w))
			}
			fmt.Println(strings.Join(parts, " "))
			return WordNil
		},
	})
	Declare(&Declaration{
		"cons", "Allocates a pair of two values",
		2, 2,
		[]DeclarationParameter{
			{"car", "word", "first element"},
			{"cdr", "word", "second element"},
		}, "pair",
		func(a ...Word) Word {
			return newPair(a[0], a[1])
		},
	})
	Declare(&Declaration{
		"car", "Returns the first element of a pair",
		1, 1,
		[]DeclarationParameter{
			{"pair", "pair", "the pair to read"},
		}, "word",
		func(a ...Word) Word {
			if a[0]&wordTagMask != wordTagPair {
				panic("car: not a pair")
			}
			return (*[2]Word)(unsafe.Pointer(uintptr(a[0] &^ wordTagMask)))[0]
		},
	})
	Declare(&Declaration{
		"cdr", "Returns the second element of a pair",
		1, 1,
		[]DeclarationParameter{
			{"pair", "pair", "the pair to read"},
		}, "word",
		func(a ...Word) Word {
			if a[0]&wordTagMask != wordTagPair {
				panic("cdr: not a pair")
			}
			return (*[2]Word)(unsafe.Pointer(uintptr(a[0] &^ wordTagMask)))[1]
		},
	})
	Declare(&Declaration{
		"eq", "Compares two words for inline equality",
		2, 2,
		[]DeclarationParameter{
			{"a", "word", "left operand"},
			{"b", "word", "right operand"},
		}, "int",
		func(a ...Word) Word {
			if a[0] == a[1] {
				return Word(1 << 3)
			}
			return Word(0)
		},
	})
	Declare(&Declaration{
		"+", "Adds fixnums",
		1, 1000,
		[]DeclarationParameter{
			{"value...", "int", "fixnums to add"},
		}, "int",
		func(a ...Word) Word {
			// fixnum tag bits are zero, so raw addition is exact
			var sum Word
			for _, w := range a {
				sum += w
			}
			return sum
		},
	})
	Declare(&Declaration{
		"-", "Subtracts fixnums from the first operand",
		1, 1000,
		[]DeclarationParameter{
			{"value...", "int", "fixnums to subtract"},
		}, "int",
		func(a ...Word) Word {
			sum := a[0]
			for _, w := range a[1:] {
				sum -= w
			}
			return sum
		},
	})
	Declare(&Declaration{
		"*", "Multiplies fixnums",
		1, 1000,
		[]DeclarationParameter{
			{"value...", "int", "fixnums to multiply"},
		}, "int",
		func(a ...Word) Word {
			prod := int64(1)
			for _, w := range a {
				prod *= int64(w) >> 3
			}
			return Word(prod << 3)
		},
	})
	Declare(&Declaration{
		"help", "Lists all functions or prints help for a specific function",
		0, 1,
		[]DeclarationParameter{
			{"topic", "symbol", "function to print help about"},
		}, "nil",
		func(a ...Word) Word {
			if len(a) == 0 {
				Help("")
			} else {
				Help(String(Decode(a[0])))
			}
			return WordNil
		},
	})
}
