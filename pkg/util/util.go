package util

import "slices"

// ReverseG returns a reversed copy, arr itself is left untouched.
func ReverseG[T any](arr []T) []T {
	reversed := slices.Clone(arr)
	slices.Reverse(reversed)
	return reversed
}
