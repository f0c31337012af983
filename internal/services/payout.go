package services

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// OddsScale is the fixed-point scale of odds: 250 means 2.50x.
	OddsScale = 100
	// MinOdds pays back at least the stake.
	MinOdds = 100
	// FeeScale is the fixed-point scale of the fee rate: 25 means 2.5%.
	FeeScale = 1000
	// MaxFeeRate caps the platform fee at 10%.
	MaxFeeRate = 100
	// DefaultFeeRate applies until an administrator sets another rate.
	DefaultFeeRate = 25
)

// Payout is the breakdown of a winning bet's settlement.
type Payout struct {
	Gross uint64 `json:"gross"`
	Fee   uint64 `json:"fee"`
	Net   uint64 `json:"net"`
}

// ComputePayout returns the settlement owed for amount staked at odds under
// feeRate. All division truncates; gross is computed before the fee and the
// fee is taken from gross:
//
//	gross = amount * odds / 100
//	fee   = gross * feeRate / 1000
//	net   = gross - fee
//
// Products are computed in arbitrary precision. A gross that does not fit in
// a uint64 is rejected.
func ComputePayout(amount, odds, feeRate uint64) (Payout, error) {
	gross, _ := fromUint64(amount).Mul(fromUint64(odds)).QuoRem(decimal.NewFromInt(OddsScale), 0)
	fee, _ := gross.Mul(fromUint64(feeRate)).QuoRem(decimal.NewFromInt(FeeScale), 0)

	g, ok := toUint64(gross)
	if !ok {
		return Payout{}, fmt.Errorf("%w: payout of %d at odds %d overflows", ErrInvalidInput, amount, odds)
	}
	f, ok := toUint64(fee)
	if !ok || f > g {
		return Payout{}, fmt.Errorf("%w: fee rate %d exceeds gross payout", ErrInvalidInput, feeRate)
	}

	return Payout{Gross: g, Fee: f, Net: g - f}, nil
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func toUint64(d decimal.Decimal) (uint64, bool) {
	b := d.BigInt()
	if b.Sign() < 0 || !b.IsUint64() {
		return 0, false
	}
	return b.Uint64(), true
}
