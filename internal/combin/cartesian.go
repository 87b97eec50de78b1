// Package combin holds the small combinatorics primitives the grounder and
// encoder build on: enumerating the cartesian product of bounded index
// ranges, and iterating ground substitutions for a selected parameter set.
package combin

// Product enumerates every index tuple [i0,...,i(k-1)] with 0 <= ij < sizes[j],
// in lexicographic order with the last index fastest (so the rightmost
// selected parameter is the inner loop — this is the order
// model.GroundAtomID's mixed-radix encoding assumes, and the order the
// support index and encoder both rely on without re-deriving it). The total
// number of tuples yielded is the product of sizes; an empty product (no
// dimensions) yields exactly one empty tuple, any zero dimension yields none.
//
// yield is called once per tuple with a slice reused across calls; callers
// that need to retain a tuple past the call must copy it. Returning false
// from yield stops enumeration early.
func Product(sizes []int, yield func(index []int) bool) {
	k := len(sizes)
	for _, n := range sizes {
		if n == 0 {
			return
		}
	}
	if k == 0 {
		yield(nil)
		return
	}
	idx := make([]int, k)
	for {
		if !yield(idx) {
			return
		}
		j := k - 1
		for j >= 0 {
			idx[j]++
			if idx[j] < sizes[j] {
				break
			}
			idx[j] = 0
			j--
		}
		if j < 0 {
			return
		}
	}
}

// Count returns the total number of tuples Product would yield for sizes,
// i.e. the product of all dimensions (1 for an empty dimension list).
func Count(sizes []int) int {
	total := 1
	for _, n := range sizes {
		if n == 0 {
			return 0
		}
		total *= n
	}
	return total
}

// All materializes Product's enumeration into a slice of tuples. Intended
// for tests and for call sites where the full set is small and needed at
// once; hot paths (the grounder's refinement loop, the encoder's per-step
// emission) should use Product directly to avoid the allocation.
func All(sizes []int) [][]int {
	var out [][]int
	Product(sizes, func(index []int) bool {
		cp := make([]int, len(index))
		copy(cp, index)
		out = append(out, cp)
		return true
	})
	return out
}
