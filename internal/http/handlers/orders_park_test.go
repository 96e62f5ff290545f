package handlers

import (
	"testing"
	"time"

	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
)

func parkedTestOrder() *store.Order {
	label := "phone order"
	category := "takeaway"
	priority := int32(2)
	expires := time.Now().Add(time.Hour)
	return &store.Order{
		ID:            7,
		OrderNumber:   "POS-3-000042",
		Status:        state.StatusHeld,
		PaymentStatus: state.PaymentUnpaid,
		Parked:        true,
		ParkLabel:     &label,
		ParkCategory:  &category,
		ParkPriority:  &priority,
		ParkExpiresAt: &expires,
	}
}

func TestClearParkState(t *testing.T) {
	order := parkedTestOrder()
	clearParkState(order)

	if order.Parked {
		t.Fatalf("expected parked flag cleared")
	}
	if order.ParkLabel != nil || order.ParkCategory != nil || order.ParkPriority != nil || order.ParkExpiresAt != nil {
		t.Fatalf("expected park metadata cleared, got %+v", order)
	}
}

func TestSnapshotOmitsParkFieldsAfterSettlement(t *testing.T) {
	// A parked order that gets paid in full must not read as parked anymore,
	// or it would keep consuming the branch's parked budget.
	order := parkedTestOrder()
	order.Status = state.StatusCompleted
	order.PaymentStatus = state.PaymentPaid
	clearParkState(order)

	data := orderSnapshot(order, nil)
	if data["parked"] != false {
		t.Fatalf("expected parked=false in snapshot, got %v", data["parked"])
	}
	if _, ok := data["parkLabel"]; ok {
		t.Fatalf("expected no park fields on a settled order snapshot")
	}
}
