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
	"strings"
)

// token is one lexed item together with its source position.
type token struct {
	value Expr
	line  int
	col   int
}

func (t token) pos(source string) string {
	return fmt.Sprintf("%s:%d:%d", source, t.line, t.col)
}

// Read parses a single expression from s.
func Read(source, s string) Expr {
	tokens := tokenize(source, s)
	return readFrom(source, &tokens)
}

// ReadAll parses a whole program: the ordered sequence of top-level
// expressions.
func ReadAll(source, s string) []Expr {
	tokens := tokenize(source, s)
	program := make([]Expr, 0)
	for len(tokens) > 0 {
		program = append(program, readFrom(source, &tokens))
	}
	return program
}

// Syntactic Analysis
func readFrom(source string, tokens *[]token) Expr {
	if len(*tokens) == 0 {
		return NewNil()
	}
	// pop first element from tokens
	t := (*tokens)[0]
	*tokens = (*tokens)[1:]
	if t.value.IsSymbol() {
		sym := t.value.String()
		if sym == "(" {
			L := make([]Expr, 0)
			for {
				if len(*tokens) == 0 {
					panic(t.pos(source) + ": expecting matching )")
				}
				next := (*tokens)[0]
				if next.value.IsSymbol() && next.value.String() == ")" {
					*tokens = (*tokens)[1:]
					if len(L) == 0 {
						return NewNil() // () is nil
					}
					return NewList(L)
				}
				L = append(L, readFrom(source, tokens))
			}
		}
		if sym == "'" {
			if len(*tokens) == 0 {
				panic(t.pos(source) + ": expecting expression after '")
			}
			quoted := readFrom(source, tokens)
			return NewList([]Expr{NewSymbol("quote"), quoted})
		}
		return t.value
	}
	return t.value
}

// Lexical Analysis
func tokenize(source, s string) []token {
	/* tokenizer state machine:
		0 = expecting next item
		1 = inside Number
		2 = inside Symbol
		3 = inside string
		4 = inside escaping sequence of string
		5 = inside comment
		6 = comment ending * from * /

	tokens are either Number, Symbol, string or Symbol('(') or Symbol(')')
	*/
	line := 1
	col := 0
	tokLine := 1
	tokCol := 1

	stringreplacer := strings.NewReplacer("\\\"", "\"", "\\\\", "\\", "\\n", "\n", "\\r", "\r", "\\t", "\t")
	state := 0
	startToken := 0
	result := make([]token, 0)

	finishNumber := func(lit string) {
		if v, err := strconv.ParseInt(lit, 10, 64); err == nil {
			if v > (1<<60)-1 || v < -(1<<60) {
				panic(fmt.Sprintf("%s:%d:%d: integer literal %s does not fit in a fixnum", source, tokLine, tokCol, lit))
			}
			result = append(result, token{NewInt(v), tokLine, tokCol})
		} else if lit == "-" {
			result = append(result, token{NewSymbol("-"), tokLine, tokCol})
		} else {
			// 1.5 and friends lex like numbers but are not fixnums
			result = append(result, token{NewSymbol(lit), tokLine, tokCol})
		}
	}

	for i, ch := range s {
		// line counting
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}

		if state == 1 && (ch == '.' || ch >= '0' && ch <= '9') {
			// another character added to Number
		} else if state == 2 && ch == '*' && s[startToken:i] == "/" {
			// begin of comment
			state = 5
		} else if state == 5 && ch == '*' {
			// comment seems to end
			state = 6
		} else if state == 5 {
			// consume another character in comment
		} else if state == 6 && ch == '/' {
			// end comment
			state = 0
		} else if state == 6 {
			// continue comment
			state = 5
		} else if state == 2 && ch != ' ' && ch != '\r' && ch != '\n' && ch != '\t' && ch != ')' && ch != '(' {
			// another character added to Symbol
		} else if state == 3 && ch != '"' && ch != '\\' {
			// another character added to string
		} else if state == 3 && ch == '\\' {
			// escape sequence
			state = 4
		} else if state == 4 {
			state = 3 // continue with string
		} else if state == 3 && ch == '"' {
			// finish string
			result = append(result, token{NewString(stringreplacer.Replace(s[startToken+1 : i])), tokLine, tokCol})
			state = 0
		} else {
			// otherwise: state change!
			if state == 1 {
				finishNumber(s[startToken:i])
			}
			if state == 2 {
				// finish Symbol
				result = append(result, token{NewSymbol(s[startToken:i]), tokLine, tokCol})
			}
			// now detect what to parse next
			startToken = i
			tokLine = line
			tokCol = col
			if ch == '(' {
				result = append(result, token{NewSymbol("("), line, col})
				state = 0
			} else if ch == ')' {
				result = append(result, token{NewSymbol(")"), line, col})
				state = 0
			} else if ch == '\'' {
				result = append(result, token{NewSymbol("'"), line, col})
				state = 0
			} else if ch == '"' {
				// start string
				state = 3
			} else if ch >= '0' && ch <= '9' || ch == '-' {
				// start Number
				state = 1
			} else if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
				// white space
				state = 0
			} else {
				// everything else is a Symbol! (Symbols only are stopped by ' ()')
				state = 2
			}
		}
	}
	// in the end: finish unfinished Symbols and Numbers
	if state == 1 {
		finishNumber(s[startToken:])
	}
	if state == 2 {
		// finish Symbol
		result = append(result, token{NewSymbol(s[startToken:]), tokLine, tokCol})
	}
	if state == 3 || state == 4 {
		panic(fmt.Sprintf("%s:%d:%d: unterminated string literal", source, tokLine, tokCol))
	}
	return result
}
