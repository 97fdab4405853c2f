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

// PreorderStatus is returned by a traversal visitor to steer descent.
type PreorderStatus int

const (
	// PreorderContinue descends into the children of the visited node.
	PreorderContinue PreorderStatus = iota
	// PreorderSkip visits the node but none of its children.
	PreorderSkip
)

// Preorder visits e and then, unless the visitor said PreorderSkip, each
// list element left to right, recursively. The node is always visited
// before its children so positions are assigned deterministically.
func Preorder(e Expr, visit func(Expr) PreorderStatus) {
	if visit(e) == PreorderSkip {
		return
	}
	if e.IsList() {
		for _, child := range e.Slice() {
			Preorder(child, visit)
		}
	}
}

// PreorderMut is Preorder over a mutable tree: the visitor may replace
// the node through the pointer. Traversal order is identical to Preorder
// for the same input tree; the two passes of the hoisting stage depend
// on that.
func PreorderMut(e *Expr, visit func(*Expr) PreorderStatus) {
	if visit(e) == PreorderSkip {
		return
	}
	if e.IsList() {
		slice := e.Slice()
		for i := range slice {
			PreorderMut(&slice[i], visit)
		}
	}
}
