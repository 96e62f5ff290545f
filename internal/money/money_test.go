package money

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		name     string
		in       float64
		expected float64
	}{
		{name: "half rounds up", in: 1.005, expected: 1.01},
		{name: "below half rounds down", in: 1.0049, expected: 1.0},
		{name: "already exact", in: 12.6, expected: 12.6},
		{name: "negative half away from zero", in: -1.005, expected: -1.01},
		{name: "float artifact", in: 0.1 + 0.2, expected: 0.3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Round2(tc.in); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestClampPercent(t *testing.T) {
	if got := ClampPercent(-5); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := ClampPercent(150); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := ClampPercent(42.5); got != 42.5 {
		t.Fatalf("expected 42.5, got %v", got)
	}
}

func TestPercentOf(t *testing.T) {
	if got := PercentOf(90, 14); got != 12.6 {
		t.Fatalf("expected 12.6, got %v", got)
	}
	if got := PercentOf(100, 10); got != 10 {
		t.Fatalf("expected 10, got %v", got)
	}
	if got := PercentOf(33.33, 10); got != 3.33 {
		t.Fatalf("expected 3.33, got %v", got)
	}
}

func TestCapPercentAmount(t *testing.T) {
	applied, capped := CapPercentAmount(60, 100, 50)
	if applied != 50 || !capped {
		t.Fatalf("expected 50 capped, got %v capped=%v", applied, capped)
	}

	applied, capped = CapPercentAmount(30, 100, 50)
	if applied != 30 || capped {
		t.Fatalf("expected 30 uncapped, got %v capped=%v", applied, capped)
	}

	applied, capped = CapPercentAmount(10, 0, 50)
	if applied != 0 || !capped {
		t.Fatalf("expected 0 capped on zero base, got %v capped=%v", applied, capped)
	}
}

func TestEffectivePercent(t *testing.T) {
	if got := EffectivePercent(45, 90); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := EffectivePercent(10, 0); got != 0 {
		t.Fatalf("expected 0 on zero base, got %v", got)
	}
}
