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
	"github.com/ZekeMedley/risp/lisp"
	"github.com/dc0d/onexit"
)

type SettingsT struct {
	Backtrace  bool
	Trace      bool
	TracePrint bool
}

var Settings SettingsT = SettingsT{false, false, false}

// call this after you filled Settings
func InitSettings() {
	lisp.SettingsHaveGoodBacktraces = Settings.Backtrace
	lisp.SetTrace(Settings.Trace)
	lisp.TracePrint = Settings.TracePrint
	onexit.Register(func() { lisp.SetTrace(false) }) // close trace file on exit
}
