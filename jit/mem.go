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
package jit

import (
	"syscall"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// roundUp rounds n up to the next multiple of align (a power of two).
func roundUp[T constraints.Integer](n, align T) T {
	return (n + align - 1) & ^(align - 1)
}

// memBuf is a small wrapper for mmap'd memory.
type memBuf struct {
	ptr unsafe.Pointer
	n   int // size
}

func (b *memBuf) bytes() []byte {
	return unsafe.Slice((*byte)(b.ptr), b.n)
}

// allocPages maps n bytes of page-aligned read-write memory outside the
// Go heap. Addresses stay stable for the process lifetime, which is what
// generated code embeds.
func allocPages(size int) (*memBuf, error) {
	n := roundUp(size, syscall.Getpagesize())
	b, err := syscall.Mmap(-1, 0, n, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_PRIVATE|syscall.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &memBuf{ptr: unsafe.Pointer(&b[0]), n: n}, nil
}

// makeRX flips a code buffer to read-execute after emission.
func (b *memBuf) makeRX() error {
	return syscall.Mprotect(b.bytes(), syscall.PROT_READ|syscall.PROT_EXEC)
}

func (b *memBuf) free() error {
	return syscall.Munmap(b.bytes())
}
