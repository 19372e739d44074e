// Package listedit implements the row operations used by every repeating
// table on a record (fees, staffing, doctors, packages, documents...).
//
// All operations return a new slice. The input slice is never written to,
// so holders of the previous value keep seeing the previous rows.
package listedit

// Add returns list with item appended.
func Add[T any](list []T, item T) []T {
	out := make([]T, len(list), len(list)+1)
	copy(out, list)
	return append(out, item)
}

// UpdateAt returns a copy of list whose element at index is replaced by
// patch applied to the current element. An index outside the list is a
// no-op and returns a copy of the original rows.
func UpdateAt[T any](list []T, index int, patch func(T) T) []T {
	out := Clone(list)
	if index < 0 || index >= len(out) {
		return out
	}
	out[index] = patch(out[index])
	return out
}

// RemoveAt returns list without the element at index, keeping the relative
// order of the rest. An index outside the list is a no-op.
func RemoveAt[T any](list []T, index int) []T {
	if index < 0 || index >= len(list) {
		return Clone(list)
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...)
}

// Move returns list with the element at from relocated to position to.
// Out-of-range positions are a no-op.
func Move[T any](list []T, from, to int) []T {
	out := Clone(list)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = RemoveAt(out, from)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out
}

// Clone returns a shallow copy of list. A nil list clones to an empty,
// non-nil slice.
func Clone[T any](list []T) []T {
	out := make([]T, len(list))
	copy(out, list)
	return out
}
