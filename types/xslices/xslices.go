// Copyright 2025 The HopGNN Authors. SPDX-License-Identifier: Apache-2.0

// Package xslices provides missing functionality to the slices package.
// Only generic helpers, no dependencies to the rest of the module.
package xslices

import (
	"golang.org/x/exp/constraints"
)

// Number is a constraint covering the numeric types the module's tensors hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// At returns the element at the given index. Negative indices are taken from
// the end -- At(slice, -1) is the last element.
func At[T any](slice []T, index int) T {
	if index < 0 {
		index = len(slice) + index
	}
	return slice[index]
}

// Last returns the last element of the slice.
func Last[T any](slice []T) T {
	return slice[len(slice)-1]
}

// FillSlice fills, in place, every element of the slice with the given value.
func FillSlice[T any](slice []T, value T) {
	for ii := range slice {
		slice[ii] = value
	}
}

// SliceWithValue returns a newly allocated slice of the given size, with every
// element set to value.
func SliceWithValue[T any](size int, value T) []T {
	slice := make([]T, size)
	FillSlice(slice, value)
	return slice
}

// Iota returns a slice of incremental values of the given type, starting at
// start, with the given size.
func Iota[T Number](start T, size int) []T {
	slice := make([]T, size)
	value := start
	for ii := range slice {
		slice[ii] = value
		value += 1
	}
	return slice
}

// Map applies fn to each element of the input slice, returning a new slice
// with the results.
func Map[In, Out any](in []In, fn func(In) Out) []Out {
	out := make([]Out, len(in))
	for ii, value := range in {
		out[ii] = fn(value)
	}
	return out
}
