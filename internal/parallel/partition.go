package parallel

// Range is a half-open index range [Lo, Hi).
type Range struct {
	Lo, Hi int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.Hi - r.Lo }

// minPartition is the smallest number of elements worth handing to a
// separate worker.
const minPartition = 64

// Partition splits [0, n) into at most parts contiguous, non-overlapping
// ranges whose lengths differ by at most one. Ranges are never empty.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	parts = min(max(parts, 1), n)

	ranges := make([]Range, parts)
	base, extra := n/parts, n%parts
	lo := 0
	for i := range ranges {
		size := base
		if i < extra {
			size++
		}
		ranges[i] = Range{Lo: lo, Hi: lo + size}
		lo += size
	}
	return ranges
}

// ForRange calls fn once per partition of [0, n) and returns after every
// call returned. Each partition is owned by exactly one call, so fn may
// write to indices inside its range without synchronization.
//
// A nil pool runs fn(0, n) on the calling goroutine.
func ForRange(p *WorkerPool, n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if p == nil || p.Workers() == 1 || n < 2*minPartition {
		fn(0, n)
		return
	}

	parts := min(p.Workers(), (n+minPartition-1)/minPartition)
	ranges := Partition(n, parts)
	work := make([]func(), len(ranges))
	for i, r := range ranges {
		work[i] = func() { fn(r.Lo, r.Hi) }
	}
	p.ExecuteAll(work)
}
