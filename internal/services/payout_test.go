package services

import (
	"errors"
	"math"
	"testing"
)

func TestComputePayout(t *testing.T) {
	cases := []struct {
		name    string
		amount  uint64
		odds    uint64
		feeRate uint64
		want    Payout
	}{
		{"reference bet", 1000, 250, 25, Payout{Gross: 2500, Fee: 62, Net: 2438}},
		{"even odds no fee", 500, 100, 0, Payout{Gross: 500, Fee: 0, Net: 500}},
		{"gross truncates", 3, 150, 0, Payout{Gross: 4, Fee: 0, Net: 4}},
		{"fee truncates to zero", 39, 100, 25, Payout{Gross: 39, Fee: 0, Net: 39}},
		{"max fee", 1000, 200, 100, Payout{Gross: 2000, Fee: 200, Net: 1800}},
		{"zero amount", 0, 250, 25, Payout{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputePayout(tc.amount, tc.odds, tc.feeRate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestComputePayoutIsDeterministic(t *testing.T) {
	first, err := ComputePayout(123456789, 317, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 100; i++ {
		again, _ := ComputePayout(123456789, 317, 25)
		if again != first {
			t.Fatalf("payout changed between calls: %+v vs %+v", first, again)
		}
	}
}

func TestComputePayoutMonotonic(t *testing.T) {
	for _, feeRate := range []uint64{0, 25, MaxFeeRate} {
		for _, odds := range []uint64{100, 133, 250, 1000} {
			var prev uint64
			for amount := uint64(0); amount <= 2000; amount += 7 {
				p, err := ComputePayout(amount, odds, feeRate)
				if err != nil {
					t.Fatalf("amount %d odds %d: %v", amount, odds, err)
				}
				if p.Net < prev {
					t.Fatalf("net payout decreased at amount %d odds %d fee %d: %d < %d",
						amount, odds, feeRate, p.Net, prev)
				}
				if p.Gross != p.Fee+p.Net {
					t.Fatalf("gross %d != fee %d + net %d", p.Gross, p.Fee, p.Net)
				}
				prev = p.Net
			}
		}
	}
}

func TestComputePayoutLargeValues(t *testing.T) {
	// amount*odds overflows 64 bits but the result still fits.
	p, err := ComputePayout(math.MaxUint64/2, 200, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Gross != math.MaxUint64-1 {
		t.Errorf("expected gross %d, got %d", uint64(math.MaxUint64-1), p.Gross)
	}

	_, err = ComputePayout(math.MaxUint64, 250, 25)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput on overflow, got %v", err)
	}
}

func TestComputePayoutFeeNeverRaisesNet(t *testing.T) {
	for _, amount := range []uint64{1, 39, 1000, 987654} {
		for _, odds := range []uint64{100, 175, 250} {
			prev := uint64(math.MaxUint64)
			for feeRate := uint64(0); feeRate <= MaxFeeRate; feeRate++ {
				p, err := ComputePayout(amount, odds, feeRate)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.Net > prev {
					t.Fatalf("net rose at fee %d for %d@%d: %d > %d", feeRate, amount, odds, p.Net, prev)
				}
				if p.Net > p.Gross || p.Gross > amount*odds/OddsScale {
					t.Fatalf("bounds violated for %d@%d fee %d: %+v", amount, odds, feeRate, p)
				}
				prev = p.Net
			}
		}
	}
}
