package curve

import (
	"errors"
	"math/big"
)

// The power function works in binary fixed point with 128 fractional bits.
// Every intermediate operation floors, so the composed result never exceeds
// the exact real value. With 128 fractional bits and at most 256 flooring
// multiplications per call the accumulated relative error stays below 2^-100,
// comfortably inside the 2^-32 envelope the pricing formulas require.
const fracBits = 128

// maxExponentShift bounds the integer part of the exponent fed into exp2.
// Token amounts are capped to 256 bits, so any result requiring a larger
// shift exceeds what a payout computation can ever need; callers special-case
// the overflow instead of materialising astronomically wide integers.
const maxExponentShift = 512

var (
	fixedOne = new(big.Int).Lsh(big.NewInt(1), fracBits)
	fixedTwo = new(big.Int).Lsh(big.NewInt(1), fracBits+1)

	errExponentOverflow = errors.New("curve: exponent exceeds representable range")
)

// log2Fixed returns floor(log2(x/2^128) * 2^128) for x >= 2^128. The integer
// part comes from the bit length, the fraction from 128 rounds of the
// classic squaring recurrence. Flooring at every step means the result never
// exceeds the exact logarithm.
func log2Fixed(x *big.Int) *big.Int {
	x = new(big.Int).Set(x)
	res := new(big.Int)
	if shift := x.BitLen() - (fracBits + 1); shift > 0 {
		x.Rsh(x, uint(shift))
		res.SetInt64(int64(shift))
		res.Lsh(res, fracBits)
	}
	// 2^128 <= x < 2^129 now; extract fractional bits by squaring.
	if x.Cmp(fixedOne) > 0 {
		bit := new(big.Int)
		for i := 1; i <= fracBits; i++ {
			x.Mul(x, x)
			x.Rsh(x, fracBits)
			if x.Cmp(fixedTwo) >= 0 {
				x.Rsh(x, 1)
				bit.SetInt64(1)
				bit.Lsh(bit, uint(fracBits-i))
				res.Add(res, bit)
			}
		}
	}
	return res
}

// exp2Fixed returns floor(2^(e/2^128) * 2^128) for e >= 0. The fractional
// part is assembled from successive square roots of two: bit i of the
// fraction contributes a factor of 2^(2^-i). big.Int.Sqrt floors, as does
// every product, so the result never exceeds the exact power.
func exp2Fixed(e *big.Int) (*big.Int, error) {
	shift := new(big.Int).Rsh(e, fracBits)
	if !shift.IsUint64() || shift.Uint64() > maxExponentShift {
		return nil, errExponentOverflow
	}
	frac := new(big.Int).And(e, new(big.Int).Sub(fixedOne, big.NewInt(1)))

	res := new(big.Int).Set(fixedOne)
	root := new(big.Int).Set(fixedTwo) // 2^(2^0)
	for i := 1; i <= fracBits; i++ {
		// root becomes 2^(2^-i) in fixed point.
		root.Lsh(root, fracBits)
		root.Sqrt(root)
		if frac.Bit(fracBits-i) == 1 {
			res.Mul(res, root)
			res.Rsh(res, fracBits)
		}
	}
	res.Lsh(res, uint(shift.Uint64()))
	return res, nil
}

// power returns floor((baseN/baseD)^(expN/expD) * 2^128). It requires
// baseN >= baseD > 0 (base at least one) and expD > 0, which both pricing
// formulas guarantee. errExponentOverflow is returned when the result would
// need more than maxExponentShift integer bits.
func power(baseN, baseD, expN, expD *big.Int) (*big.Int, error) {
	base := new(big.Int).Lsh(baseN, fracBits)
	base.Quo(base, baseD)
	l := log2Fixed(base)
	l.Mul(l, expN)
	l.Quo(l, expD)
	return exp2Fixed(l)
}
