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
	"io"
	"strings"
)

// String renders an expression for display.
func String(v Expr) string {
	switch v.GetTag() {
	case tagNil:
		return "()"
	case tagInt:
		return v.String()
	case tagString:
		return v.String()
	case tagSymbol:
		return v.String()
	case tagList:
		slice := v.Slice()
		l := make([]string, len(slice))
		for i, x := range slice {
			l[i] = String(x)
		}
		return "(" + strings.Join(l, " ") + ")"
	default:
		return "<unknown>"
	}
}

// Serialize writes an expression in re-readable form: strings are quoted
// and escaped, everything else prints like String.
func Serialize(w io.Writer, v Expr) {
	switch v.GetTag() {
	case tagString:
		replacer := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n", "\r", "\\r", "\t", "\\t")
		io.WriteString(w, "\""+replacer.Replace(v.String())+"\"")
	case tagList:
		io.WriteString(w, "(")
		for i, x := range v.Slice() {
			if i > 0 {
				io.WriteString(w, " ")
			}
			Serialize(w, x)
		}
		io.WriteString(w, ")")
	default:
		io.WriteString(w, String(v))
	}
}
