// Package smallvec provides a sequence that stores its first elements inline
// in the struct and only moves to a heap slice once it outgrows the inline
// buffer. Hot paths that usually see a handful of elements, such as the
// inputs of a typical transaction, avoid a heap allocation entirely.
package smallvec

// InlineCap is the number of elements held without a heap allocation.
const InlineCap = 8

// Vec is a growable sequence with inline storage for the first InlineCap
// elements. The zero value is ready to use. Vec must not be copied after
// first use once it has spilled, as copies would share the spill slice.
type Vec[T any] struct {
	inline [InlineCap]T
	n      int
	spill  []T // holds all elements once the inline buffer overflows
}

// Push appends v to the sequence.
func (v *Vec[T]) Push(x T) {
	if v.spill != nil {
		v.spill = append(v.spill, x)
		return
	}

	if v.n < InlineCap {
		v.inline[v.n] = x
		v.n++

		return
	}

	v.spill = make([]T, v.n, 2*InlineCap)
	copy(v.spill, v.inline[:v.n])
	v.spill = append(v.spill, x)
}

// Pop removes and returns the last element. The second return is false when
// the sequence is empty.
func (v *Vec[T]) Pop() (T, bool) {
	var zero T

	if v.spill != nil {
		if len(v.spill) == 0 {
			return zero, false
		}

		x := v.spill[len(v.spill)-1]
		v.spill[len(v.spill)-1] = zero
		v.spill = v.spill[:len(v.spill)-1]

		return x, true
	}

	if v.n == 0 {
		return zero, false
	}

	v.n--
	x := v.inline[v.n]
	v.inline[v.n] = zero

	return x, true
}

// At returns the element at index i. Panics when i is out of range, matching
// slice semantics.
func (v *Vec[T]) At(i int) T {
	if v.spill != nil {
		return v.spill[i]
	}

	if i >= v.n {
		panic("smallvec: index out of range")
	}

	return v.inline[i]
}

// Set replaces the element at index i.
func (v *Vec[T]) Set(i int, x T) {
	if v.spill != nil {
		v.spill[i] = x
		return
	}

	if i >= v.n {
		panic("smallvec: index out of range")
	}

	v.inline[i] = x
}

func (v *Vec[T]) Len() int {
	if v.spill != nil {
		return len(v.spill)
	}

	return v.n
}

// Spilled reports whether the sequence has moved to heap storage.
func (v *Vec[T]) Spilled() bool {
	return v.spill != nil
}

// Cap returns the number of elements the sequence can hold before its next
// allocation.
func (v *Vec[T]) Cap() int {
	if v.spill != nil {
		return cap(v.spill)
	}

	return InlineCap
}

// Grow ensures capacity for n more elements without further allocation. A
// sequence that would not fit inline spills immediately.
func (v *Vec[T]) Grow(n int) {
	if n < 0 {
		panic("smallvec: negative grow")
	}

	need := v.Len() + n

	if v.spill == nil {
		if need <= InlineCap {
			return
		}

		if need < 2*InlineCap {
			need = 2 * InlineCap
		}

		spill := make([]T, v.n, need)
		copy(spill, v.inline[:v.n])
		v.spill = spill

		var zero T
		for i := 0; i < v.n; i++ {
			v.inline[i] = zero
		}

		v.n = 0

		return
	}

	if need <= cap(v.spill) {
		return
	}

	spill := make([]T, len(v.spill), need)
	copy(spill, v.spill)
	v.spill = spill
}

// Insert places x at index i, shifting later elements right. i may equal
// Len(), which appends.
func (v *Vec[T]) Insert(i int, x T) {
	n := v.Len()
	if i < 0 || i > n {
		panic("smallvec: insert out of range")
	}

	if v.spill == nil && v.n < InlineCap {
		copy(v.inline[i+1:v.n+1], v.inline[i:v.n])
		v.inline[i] = x
		v.n++

		return
	}

	if v.spill == nil {
		v.Grow(1)
	}

	var zero T

	v.spill = append(v.spill, zero)
	copy(v.spill[i+1:], v.spill[i:])
	v.spill[i] = x
}

// Remove deletes and returns the element at index i, shifting later elements
// left.
func (v *Vec[T]) Remove(i int) T {
	n := v.Len()
	if i < 0 || i >= n {
		panic("smallvec: remove out of range")
	}

	var zero T

	if v.spill != nil {
		x := v.spill[i]
		copy(v.spill[i:], v.spill[i+1:])
		v.spill[n-1] = zero
		v.spill = v.spill[:n-1]

		return x
	}

	x := v.inline[i]
	copy(v.inline[i:v.n-1], v.inline[i+1:v.n])
	v.n--
	v.inline[v.n] = zero

	return x
}

// Clone returns an independent copy. The copy never shares spill storage
// with the original.
func (v *Vec[T]) Clone() Vec[T] {
	out := Vec[T]{}

	if v.spill != nil {
		out.spill = make([]T, len(v.spill), cap(v.spill))
		copy(out.spill, v.spill)

		return out
	}

	out.n = v.n
	copy(out.inline[:], v.inline[:v.n])

	return out
}

// Slice returns a view of the elements. The view is invalidated by the next
// Push, Truncate or Reset.
func (v *Vec[T]) Slice() []T {
	if v.spill != nil {
		return v.spill
	}

	return v.inline[:v.n]
}

// Truncate shortens the sequence to k elements, zeroing the trimmed slots so
// pointer elements become collectable. Truncating below InlineCap does not
// move spilled storage back inline.
func (v *Vec[T]) Truncate(k int) {
	if k < 0 || k > v.Len() {
		panic("smallvec: truncate out of range")
	}

	var zero T

	if v.spill != nil {
		for i := k; i < len(v.spill); i++ {
			v.spill[i] = zero
		}

		v.spill = v.spill[:k]

		return
	}

	for i := k; i < v.n; i++ {
		v.inline[i] = zero
	}

	v.n = k
}

// Reset empties the sequence and returns it to inline storage.
func (v *Vec[T]) Reset() {
	var zero T

	for i := 0; i < v.n; i++ {
		v.inline[i] = zero
	}

	v.n = 0
	v.spill = nil
}

// Each calls fn for every element in order, stopping early when fn returns
// false.
func (v *Vec[T]) Each(fn func(i int, x T) bool) {
	for i, x := range v.Slice() {
		if !fn(i, x) {
			return
		}
	}
}
