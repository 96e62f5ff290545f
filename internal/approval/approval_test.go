package approval

import (
	"context"
	"testing"

	"servepoint-pos-service/internal/auth"
)

func TestCheckDiscountWithinCeiling(t *testing.T) {
	decision, err := CheckDiscount(context.Background(), nil, 1, 15, 20, auth.RoleCashier, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Approved || decision.RequiresApproval {
		t.Fatalf("expected approval without escalation, got %+v", decision)
	}
	if decision.MaxPercent != 20 {
		t.Fatalf("expected ceiling 20 in decision, got %.2f", decision.MaxPercent)
	}
}

func TestCheckDiscountAtExactCeiling(t *testing.T) {
	decision, err := CheckDiscount(context.Background(), nil, 1, 20, 20, auth.RoleWaiter, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Approved {
		t.Fatalf("a request at exactly the ceiling must not escalate, got %+v", decision)
	}
}

func TestCheckDiscountElevatedRoleBypassesPIN(t *testing.T) {
	for _, role := range []auth.UserRole{auth.RoleManager, auth.RoleOwner} {
		decision, err := CheckDiscount(context.Background(), nil, 1, 45, 20, role, "")
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", role, err)
		}
		if !decision.Approved {
			t.Fatalf("expected %s to self-approve above the ceiling, got %+v", role, decision)
		}
	}
}

func TestCheckDiscountEscalatesWithoutPIN(t *testing.T) {
	decision, err := CheckDiscount(context.Background(), nil, 1, 45, 20, auth.RoleCashier, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Approved {
		t.Fatalf("a cashier above the ceiling must not be approved, got %+v", decision)
	}
	if !decision.RequiresApproval {
		t.Fatalf("expected RequiresApproval, got %+v", decision)
	}
	if decision.MaxPercent != 20 {
		t.Fatalf("expected the decision to carry the ceiling, got %.2f", decision.MaxPercent)
	}
}

func TestCheckDiscountBlankPINStillEscalates(t *testing.T) {
	decision, err := CheckDiscount(context.Background(), nil, 1, 45, 20, auth.RoleCashier, "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.RequiresApproval {
		t.Fatalf("a whitespace PIN must be treated as absent, got %+v", decision)
	}
}
