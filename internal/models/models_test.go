package models

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestEventStatusAdvancesForwardOnly(t *testing.T) {
	cases := []struct {
		from, to EventStatus
		want     bool
	}{
		{EventStatusActive, EventStatusClosed, true},
		{EventStatusClosed, EventStatusResolved, true},
		{EventStatusActive, EventStatusResolved, false},
		{EventStatusClosed, EventStatusActive, false},
		{EventStatusResolved, EventStatusClosed, false},
		{EventStatusResolved, EventStatusResolved, false},
		{EventStatus("PAUSED"), EventStatusClosed, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestParseIdentity(t *testing.T) {
	address := solana.NewWallet().PublicKey().String()

	id, err := ParseIdentity("  " + address + " ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() != address || !id.Valid() {
		t.Errorf("expected %s, got %s", address, id)
	}

	for _, bad := range []string{"", "abc", "0OIl" + address[4:]} {
		if _, err := ParseIdentity(bad); err == nil {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
	if Identity("abc").Valid() {
		t.Error("expected short identity to be invalid")
	}
}
