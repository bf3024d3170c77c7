// Package curve prices purchases and sales against a power-function bonding
// curve. The connector weight is expressed in parts per million; a weight of
// 1_000_000 degenerates to a linear relation and is computed with exact
// integer arithmetic. All results round down so the pool backing the curve
// retains any rounding residue.
package curve

import (
	"errors"
	"math/big"
)

// MaxRatioPpm is the parts-per-million denominator for connector weights.
const MaxRatioPpm uint32 = 1_000_000

var (
	ErrInvalidRatio       = errors.New("curve: reserve ratio out of range")
	ErrInvalidAmount      = errors.New("curve: amount must be non-negative")
	ErrUninitialized      = errors.New("curve: supply and reserve must be positive")
	ErrInsufficientSupply = errors.New("curve: sale exceeds outstanding supply")
)

var ppmDenominator = big.NewInt(int64(MaxRatioPpm))

// PurchaseReturn computes the shares issued for depositing amount tokens into
// a curve with the given supply, reserve and connector weight:
//
//	return = supply * ((1 + amount/reserve)^(ratio/1e6) - 1)
//
// The result rounds down. Undefined (rejected) for an uninitialized curve;
// callers seed new pools outside the formula.
func PurchaseReturn(supply, reserve *big.Int, ratioPpm uint32, amount *big.Int) (*big.Int, error) {
	if err := validate(supply, reserve, ratioPpm, amount); err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if ratioPpm == MaxRatioPpm {
		// Linear curve: price stays proportional, computed exactly.
		out := new(big.Int).Mul(supply, amount)
		return out.Quo(out, reserve), nil
	}
	baseN := new(big.Int).Add(reserve, amount)
	result, err := power(baseN, reserve, big.NewInt(int64(ratioPpm)), ppmDenominator)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(supply, result)
	out.Rsh(out, fracBits)
	out.Sub(out, supply)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out, nil
}

// SaleReturn computes the reserve tokens returned for burning amount shares:
//
//	return = reserve * (1 - (1 - amount/supply)^(1e6/ratio))
//
// The result rounds down. Selling the entire supply drains the reserve
// exactly.
func SaleReturn(supply, reserve *big.Int, ratioPpm uint32, amount *big.Int) (*big.Int, error) {
	if err := validate(supply, reserve, ratioPpm, amount); err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	switch amount.Cmp(supply) {
	case 1:
		return nil, ErrInsufficientSupply
	case 0:
		return new(big.Int).Set(reserve), nil
	}
	if ratioPpm == MaxRatioPpm {
		out := new(big.Int).Mul(reserve, amount)
		return out.Quo(out, supply), nil
	}
	remaining := new(big.Int).Sub(supply, amount)
	result, err := power(supply, remaining, ppmDenominator, big.NewInt(int64(ratioPpm)))
	if err != nil {
		if errors.Is(err, errExponentOverflow) {
			// The retained fraction of the reserve is below one token
			// unit; pay out everything except a single unit of dust.
			return new(big.Int).Sub(reserve, big.NewInt(1)), nil
		}
		return nil, err
	}
	out := new(big.Int).Sub(result, fixedOne)
	out.Mul(out, reserve)
	out.Quo(out, result)
	return out, nil
}

func validate(supply, reserve *big.Int, ratioPpm uint32, amount *big.Int) error {
	if ratioPpm == 0 || ratioPpm > MaxRatioPpm {
		return ErrInvalidRatio
	}
	if supply == nil || reserve == nil || supply.Sign() <= 0 || reserve.Sign() <= 0 {
		return ErrUninitialized
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}
