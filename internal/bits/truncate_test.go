package bits_test

import (
	"testing"

	"github.com/icza/mighty"
	"github.com/mewkiz/alac/internal/bits"
)

func TestTruncate(t *testing.T) {
	eq := mighty.Eq(t)
	golden := []struct {
		v    int32
		n    uint
		want int32
	}{
		{v: 3, n: 4, want: 3},
		{v: 7, n: 4, want: 7},
		{v: 8, n: 4, want: -8},
		{v: 17, n: 4, want: 1},
		{v: -1, n: 4, want: -1},
		{v: -9, n: 4, want: 7},
		{v: 65534, n: 16, want: -2},
		{v: -65534, n: 16, want: 2},
		{v: 70000, n: 17, want: -61072},
	}
	for _, g := range golden {
		eq(g.want, bits.Truncate(g.v, g.n))
	}
}

// Truncate(v, n) lies in [-2^(n-1), 2^(n-1)) and is congruent to v modulo
// 2^n.
func TestTruncateIdentity(t *testing.T) {
	for _, n := range []uint{4, 8, 16, 17} {
		lo := -int32(1) << (n - 1)
		hi := int32(1) << (n - 1)
		mod := int32(1) << n
		for v := int32(-100000); v <= 100000; v += 37 {
			got := bits.Truncate(v, n)
			if got < lo || got >= hi {
				t.Fatalf("Truncate(%d, %d) = %d; outside [%d, %d)", v, n, got, lo, hi)
			}
			if (got-v)%mod != 0 {
				t.Fatalf("Truncate(%d, %d) = %d; not congruent modulo %d", v, n, got, mod)
			}
		}
	}
}
