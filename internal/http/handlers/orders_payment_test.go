package handlers

import (
	"errors"
	"math"
	"testing"

	"servepoint-pos-service/internal/money"
)

func TestSettlePaymentsSplitWithChange(t *testing.T) {
	entries := []paymentEntry{
		{Method: "CASH", Amount: 50.00},
		{Method: "CARD", Amount: 70.00},
	}

	applied, appliedTotal, change, err := settlePayments(entries, 111.60, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != 8.40 {
		t.Fatalf("expected change 8.40, got %.2f", change)
	}
	if appliedTotal != 111.60 {
		t.Fatalf("expected applied total 111.60, got %.2f", appliedTotal)
	}

	if len(applied) != 2 {
		t.Fatalf("expected 2 recorded entries, got %d", len(applied))
	}
	if applied[0].Amount != 50.00 {
		t.Fatalf("expected first entry untouched at 50.00, got %.2f", applied[0].Amount)
	}
	if applied[1].Amount != 61.60 {
		t.Fatalf("expected last entry trimmed to 61.60, got %.2f", applied[1].Amount)
	}

	sum := 0.0
	for _, e := range applied {
		sum += e.Amount
	}
	if math.Abs(sum-111.60) > 1e-9 {
		t.Fatalf("recorded entries must sum to the due amount, got %.2f", sum)
	}
}

func TestSettlePaymentsExact(t *testing.T) {
	applied, appliedTotal, change, err := settlePayments([]paymentEntry{
		{Method: "CARD", Amount: 42.50},
	}, 42.50, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != 0 {
		t.Fatalf("expected no change, got %.2f", change)
	}
	if appliedTotal != 42.50 || len(applied) != 1 || applied[0].Amount != 42.50 {
		t.Fatalf("expected single untouched entry of 42.50, got %+v total %.2f", applied, appliedTotal)
	}
}

func TestSettlePaymentsShortageRejected(t *testing.T) {
	cases := []struct {
		name   string
		amount float64
	}{
		{name: "token amount", amount: 0.01},
		{name: "half the bill", amount: 50.00},
		{name: "two cents short", amount: 111.58},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := settlePayments([]paymentEntry{
				{Method: "CASH", Amount: tc.amount},
			}, 111.60, false)
			if !errors.Is(err, errInsufficientPayment) {
				t.Fatalf("expected insufficient payment error, got %v", err)
			}
		})
	}
}

func TestSettlePaymentsPartial(t *testing.T) {
	applied, appliedTotal, change, err := settlePayments([]paymentEntry{
		{Method: "CASH", Amount: 50.00},
	}, 111.60, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != 0 {
		t.Fatalf("a partial payment yields no change, got %.2f", change)
	}
	if appliedTotal != 50.00 || len(applied) != 1 || applied[0].Amount != 50.00 {
		t.Fatalf("expected the entry applied as-is, got %+v total %.2f", applied, appliedTotal)
	}
}

func TestSettlePaymentsPartialAccumulates(t *testing.T) {
	due := 111.60

	_, first, _, err := settlePayments([]paymentEntry{
		{Method: "CASH", Amount: 50.00},
	}, due, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The second request settles the remaining balance with overpayment.
	remaining := money.Round2(due - first)
	applied, second, change, err := settlePayments([]paymentEntry{
		{Method: "CARD", Amount: 70.00},
	}, remaining, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != 8.40 {
		t.Fatalf("expected change 8.40 on the closing payment, got %.2f", change)
	}
	if applied[0].Amount != 61.60 {
		t.Fatalf("expected closing entry trimmed to 61.60, got %.2f", applied[0].Amount)
	}
	if money.Round2(first+second) != due {
		t.Fatalf("expected accumulated payments to equal %.2f, got %.2f", due, first+second)
	}
}

func TestSettlePaymentsDropsFullyTrimmedEntry(t *testing.T) {
	entries := []paymentEntry{
		{Method: "CASH", Amount: 30.00},
		{Method: "VOUCHER", Amount: 10.00},
	}

	applied, appliedTotal, change, err := settlePayments(entries, 25.00, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != 15.00 {
		t.Fatalf("expected change 15.00, got %.2f", change)
	}
	if appliedTotal != 25.00 {
		t.Fatalf("expected applied total 25.00, got %.2f", appliedTotal)
	}
	if len(applied) != 1 {
		t.Fatalf("expected the zeroed voucher entry to be dropped, got %d entries", len(applied))
	}
	if applied[0].Method != "CASH" || applied[0].Amount != 25.00 {
		t.Fatalf("expected cash trimmed to 25.00, got %+v", applied[0])
	}
}

func TestSettlePaymentsToleratesRoundingShortfall(t *testing.T) {
	// A penny under the due amount still settles under the epsilon.
	applied, appliedTotal, change, err := settlePayments([]paymentEntry{
		{Method: "CASH", Amount: 99.99},
	}, 100.00, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if change != 0 {
		t.Fatalf("expected no change, got %.2f", change)
	}
	if appliedTotal != 99.99 || len(applied) != 1 {
		t.Fatalf("expected the entry applied as-is, got %+v total %.2f", applied, appliedTotal)
	}
}
