package sketch

import (
	"math"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// CMS is a count-min sketch over string keys: d hash rows times w counter
// columns of uint64 cells. It never underestimates a key's frequency; with
// probability at least 1-gamma the overestimate stays within eps times the
// total count.
//
// Cells are atomic, so Update and Estimate are safe to call concurrently
// from the dispatch and extract paths without locking. Reset may race with
// updates, losing at most the in-flight increments.
type CMS struct {
	d, w  uint64
	seeds []uint64
	cells []atomic.Uint64 // d*w, row-major
}

// NewWithDims builds a sketch with an explicit shape of d rows by w
// columns.
func NewWithDims(d, w uint64) (*CMS, error) {
	if d < 1 || w < 1 {
		return nil, ErrZeroDims
	}
	s := &CMS{
		d:     d,
		w:     w,
		seeds: make([]uint64, d),
		cells: make([]atomic.Uint64, d*w),
	}
	for i := range s.seeds {
		s.seeds[i] = splitmix64(uint64(i) + 1)
	}
	return s, nil
}

// NewWithErrorBounds derives the shape from the error probability gamma and
// the relative error tolerance eps, both in (0, 1].
func NewWithErrorBounds(gamma, eps float64) (*CMS, error) {
	if gamma <= 0 || gamma > 1 || eps <= 0 || eps > 1 {
		return nil, ErrErrorBounds
	}
	return NewWithDims(RowsFromGamma(gamma), ColsFromEps(eps))
}

// RowsFromGamma returns d = ceil(ln(1/gamma)).
func RowsFromGamma(gamma float64) uint64 {
	return uint64(math.Ceil(math.Log(1 / gamma)))
}

// ColsFromEps returns w = ceil(e/eps).
func ColsFromEps(eps float64) uint64 {
	return uint64(math.Ceil(math.E / eps))
}

// GammaFromRows inverts RowsFromGamma up to the ceiling: gamma = 1/exp(d).
func GammaFromRows(d uint64) float64 {
	return 1 / math.Exp(float64(d))
}

// EpsFromCols inverts ColsFromEps up to the ceiling: eps = e/w.
func EpsFromCols(w uint64) float64 {
	return math.E / float64(w)
}

// SizeBytes returns d*w*8, the constant cost of the counter table.
func SizeBytes(d, w uint64) uint64 {
	return d * w * 8
}

// Dims returns the sketch shape.
func (s *CMS) Dims() (d, w uint64) {
	return s.d, s.w
}

// SizeBytes returns the heap cost of the counter table.
func (s *CMS) SizeBytes() uint64 {
	return SizeBytes(s.d, s.w)
}

// Update adds delta to every row's counter for key, saturating instead of
// wrapping around.
func (s *CMS) Update(key string, delta uint64) {
	base := xxhash.Sum64String(key)
	for i := uint64(0); i < s.d; i++ {
		cell := &s.cells[i*s.w+splitmix64(base^s.seeds[i])%s.w]
		for {
			cur := cell.Load()
			next := cur + delta
			if next < cur {
				next = math.MaxUint64
			}
			if cell.CompareAndSwap(cur, next) {
				break
			}
		}
	}
}

// Estimate returns the minimum counter for key across rows. It is an upper
// bound on the number of updates recorded for key since the last reset.
func (s *CMS) Estimate(key string) uint64 {
	base := xxhash.Sum64String(key)
	least := uint64(math.MaxUint64)
	for i := uint64(0); i < s.d; i++ {
		if v := s.cells[i*s.w+splitmix64(base^s.seeds[i])%s.w].Load(); v < least {
			least = v
		}
	}
	return least
}

// Reset zeroes every counter.
func (s *CMS) Reset() {
	for i := range s.cells {
		s.cells[i].Store(0)
	}
}

// splitmix64 is the finalizer of the splitmix64 generator. Each row hashes
// a key by mixing the xxhash base digest with a row seed, giving d
// deterministic, pairwise-independent hash values from a single digest
// pass.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
