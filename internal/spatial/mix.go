package spatial

// H3 indexes keep their unused finer-resolution digits set to 1, so at
// resolution 9 the low 18 bits of every cell are identical and masking the
// raw index would put every cell in the same bucket. Keys are the cell index
// passed through the murmur3 64-bit finalizer, a bijection that spreads
// entropy into the low bits. It maps 0 to 0 and is undone by unmix.

const (
	mixMul1 = 0xff51afd7ed558ccd
	mixMul2 = 0xc4ceb9fe1a85ec53
)

var (
	mixInv1 = inverseOdd(mixMul1)
	mixInv2 = inverseOdd(mixMul2)
)

func mix(x uint64) uint64 {
	x ^= x >> 33
	x *= mixMul1
	x ^= x >> 33
	x *= mixMul2
	x ^= x >> 33
	return x
}

// unmix inverts mix. A 33-bit xor-shift is its own inverse on 64 bits.
func unmix(x uint64) uint64 {
	x ^= x >> 33
	x *= mixInv2
	x ^= x >> 33
	x *= mixInv1
	x ^= x >> 33
	return x
}

// inverseOdd returns the multiplicative inverse of an odd number modulo 2^64
// by Newton iteration; each step doubles the number of correct low bits.
func inverseOdd(a uint64) uint64 {
	inv := a
	for i := 0; i < 5; i++ {
		inv *= 2 - a*inv
	}
	return inv
}
