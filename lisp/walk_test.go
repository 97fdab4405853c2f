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

func TestPreorderOrder(t *testing.T) {
	e := Read("test", "(a (b c) d)")
	var visited []string
	Preorder(e, func(x Expr) PreorderStatus {
		if x.IsSymbol() {
			visited = append(visited, x.Symbol())
		} else {
			visited = append(visited, "*")
		}
		return PreorderContinue
	})
	got := strings.Join(visited, " ")
	if got != "* a * b c d" {
		t.Errorf("preorder visited %q", got)
	}
}

func TestPreorderSkip(t *testing.T) {
	e := Read("test", "(a (b c) d)")
	var visited []string
	Preorder(e, func(x Expr) PreorderStatus {
		if x.IsSymbol() {
			visited = append(visited, x.Symbol())
			return PreorderContinue
		}
		visited = append(visited, "*")
		if len(visited) > 1 {
			// skip nested lists but not the root
			return PreorderSkip
		}
		return PreorderContinue
	})
	got := strings.Join(visited, " ")
	if got != "* a * d" {
		t.Errorf("preorder with skip visited %q", got)
	}
}

func TestPreorderMutReplace(t *testing.T) {
	e := Read("test", "(a (b c) d)")
	PreorderMut(&e, func(x *Expr) PreorderStatus {
		if x.IsSymbol() && x.Symbol() == "c" {
			*x = NewInt(9)
		}
		return PreorderContinue
	})
	if got := String(e); got != "(a (b 9) d)" {
		t.Errorf("mutation gave %s", got)
	}
}

func TestPreorderMutSameOrder(t *testing.T) {
	src := "(f (quote (1 2)) (g \"s\" 3))"
	a := Read("test", src)
	b := Read("test", src)
	var orderA, orderB []string
	Preorder(a, func(x Expr) PreorderStatus {
		orderA = append(orderA, String(x))
		return PreorderContinue
	})
	PreorderMut(&b, func(x *Expr) PreorderStatus {
		orderB = append(orderB, String(*x))
		return PreorderContinue
	})
	if strings.Join(orderA, "|") != strings.Join(orderB, "|") {
		t.Errorf("Preorder and PreorderMut disagree:\n%v\n%v", orderA, orderB)
	}
}
