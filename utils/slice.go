package utils

import "sort"

func Filter[T any](src []T, predicate func(T) bool) []T {
	dst := make([]T, 0, len(src))
	for _, item := range src {
		if predicate(item) {
			dst = append(dst, item)
		}
	}
	return dst
}

func Map[T any, U any](src []T, mapper func(T) U) []U {
	dst := make([]U, 0, len(src))
	for _, item := range src {
		dst = append(dst, mapper(item))
	}
	return dst
}

// SortedBy returns a copy of src ordered by less. The order of equal items is kept.
func SortedBy[T any](src []T, less func(a, b T) bool) []T {
	dst := make([]T, len(src))
	copy(dst, src)
	sort.SliceStable(dst, func(i, j int) bool { return less(dst[i], dst[j]) })
	return dst
}
