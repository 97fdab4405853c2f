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
	"github.com/ZekeMedley/risp/jit"
)

// Context carries the compilation state threaded through every emit
// helper: the module that owns data and code segments and the builder
// for the function currently under construction.
type Context struct {
	Module *jit.Module
	B      *jit.Builder
}
