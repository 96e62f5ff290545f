package state

import "testing"

func TestCanModify(t *testing.T) {
	cases := []struct {
		name    string
		status  Status
		payment PaymentStatus
		allowed bool
	}{
		{name: "open unpaid", status: StatusOpen, payment: PaymentUnpaid, allowed: true},
		{name: "open partial", status: StatusOpen, payment: PaymentPartial, allowed: true},
		{name: "held unpaid", status: StatusHeld, payment: PaymentUnpaid, allowed: true},
		{name: "paid", status: StatusOpen, payment: PaymentPaid, allowed: false},
		{name: "voided", status: StatusVoided, payment: PaymentUnpaid, allowed: false},
		{name: "refunded", status: StatusRefunded, payment: PaymentRefunded, allowed: false},
		{name: "cancelled", status: StatusCancelled, payment: PaymentUnpaid, allowed: false},
		{name: "completed", status: StatusCompleted, payment: PaymentPaid, allowed: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanModify(tc.status, tc.payment)
			if tc.allowed && err != nil {
				t.Fatalf("expected allowed, got %v", err)
			}
			if !tc.allowed {
				if err == nil {
					t.Fatalf("expected violation")
				}
				if err.Code != "INVALID_ORDER_STATUS" {
					t.Fatalf("expected INVALID_ORDER_STATUS, got %s", err.Code)
				}
			}
		})
	}
}

func TestCanPayVoidedOrder(t *testing.T) {
	err := CanPay(StatusVoided, PaymentUnpaid)
	if err == nil || err.Code != "INVALID_ORDER_STATUS" {
		t.Fatalf("expected INVALID_ORDER_STATUS, got %v", err)
	}
}

func TestCanPay(t *testing.T) {
	if err := CanPay(StatusOpen, PaymentUnpaid); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := CanPay(StatusOpen, PaymentPartial); err != nil {
		t.Fatalf("expected partial payment allowed, got %v", err)
	}
	if err := CanPay(StatusOpen, PaymentPaid); err == nil {
		t.Fatalf("expected violation for already paid")
	}
}

func TestCanPark(t *testing.T) {
	if err := CanPark(StatusOpen, PaymentUnpaid, false); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := CanPark(StatusOpen, PaymentPaid, false); err == nil {
		t.Fatalf("expected violation for paid order")
	}
	if err := CanPark(StatusOpen, PaymentUnpaid, true); err == nil || err.Code != "ALREADY_PARKED" {
		t.Fatalf("expected ALREADY_PARKED, got %v", err)
	}
	if err := CanPark(StatusVoided, PaymentUnpaid, false); err == nil {
		t.Fatalf("expected violation for voided order")
	}
}

func TestCanResume(t *testing.T) {
	if err := CanResume(StatusHeld, true); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := CanResume(StatusOpen, true); err == nil || err.Code != "NOT_PARKED" {
		t.Fatalf("expected NOT_PARKED, got %v", err)
	}
	if err := CanResume(StatusHeld, false); err == nil {
		t.Fatalf("expected violation when parked flag is off")
	}
}

func TestCanVoidOrder(t *testing.T) {
	if err := CanVoidOrder(StatusOpen, PaymentUnpaid); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := CanVoidOrder(StatusOpen, PaymentPaid); err == nil || err.Code != "ORDER_ALREADY_PAID" {
		t.Fatalf("expected ORDER_ALREADY_PAID, got %v", err)
	}
	if err := CanVoidOrder(StatusVoided, PaymentUnpaid); err == nil {
		t.Fatalf("expected violation for already voided")
	}
}

func TestCanVoidLine(t *testing.T) {
	if err := CanVoidLine(StatusOpen, PaymentUnpaid, false); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := CanVoidLine(StatusOpen, PaymentUnpaid, true); err == nil {
		t.Fatalf("expected violation for already voided line")
	}
	if err := CanVoidLine(StatusOpen, PaymentPaid, false); err == nil || err.Code != "ORDER_ALREADY_PAID" {
		t.Fatalf("expected ORDER_ALREADY_PAID, got %v", err)
	}
}

func TestCanRefund(t *testing.T) {
	if err := CanRefund(StatusCompleted, PaymentPaid); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := CanRefund(StatusOpen, PaymentPartial); err != nil {
		t.Fatalf("expected partial refundable, got %v", err)
	}
	if err := CanRefund(StatusRefunded, PaymentRefunded); err == nil {
		t.Fatalf("expected violation for already refunded")
	}
	if err := CanRefund(StatusOpen, PaymentUnpaid); err == nil {
		t.Fatalf("expected violation for unpaid order")
	}
}

func TestCanFire(t *testing.T) {
	if err := CanFire(StatusOpen); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := CanFire(StatusHeld); err != nil {
		t.Fatalf("expected held order fireable, got %v", err)
	}
	if err := CanFire(StatusVoided); err == nil {
		t.Fatalf("expected violation for voided order")
	}
}
