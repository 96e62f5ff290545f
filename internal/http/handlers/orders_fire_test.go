package handlers

import (
	"testing"

	"servepoint-pos-service/internal/state"
	"servepoint-pos-service/internal/store"
)

func fireTestLines() []store.Line {
	course1 := int32(1)
	course2 := int32(2)
	return []store.Line{
		{ID: 1, Name: "Soup", KitchenStatus: state.KitchenPending, CourseNo: &course1},
		{ID: 2, Name: "Steak", KitchenStatus: state.KitchenPending, CourseNo: &course2},
		{ID: 3, Name: "Salad", KitchenStatus: state.KitchenPreparing, CourseNo: &course1},
		{ID: 4, Name: "Wine", KitchenStatus: state.KitchenPending},
		{ID: 5, Name: "Cake", KitchenStatus: state.KitchenPending, IsVoided: true},
	}
}

func firedIDs(lines []store.Line) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestSelectFireLines(t *testing.T) {
	course1 := int32(1)
	cases := []struct {
		name     string
		fireType string
		itemIDs  []int64
		courseNo *int32
		expected []int64
	}{
		{
			name:     "fire all skips fired and voided lines",
			fireType: "all",
			expected: []int64{1, 2, 4},
		},
		{
			name:     "fire items only targets named pending lines",
			fireType: "items",
			itemIDs:  []int64{1, 3, 5},
			expected: []int64{1},
		},
		{
			name:     "fire course matches course number",
			fireType: "course",
			courseNo: &course1,
			expected: []int64{1},
		},
		{
			name:     "fire course skips lines without a course",
			fireType: "course",
			courseNo: new(int32),
			expected: []int64{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := firedIDs(selectFireLines(fireTestLines(), tc.fireType, tc.itemIDs, tc.courseNo))
			if len(got) != len(tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
			for i := range tc.expected {
				if got[i] != tc.expected[i] {
					t.Fatalf("expected %v, got %v", tc.expected, got)
				}
			}
		})
	}
}

func TestSelectFireLinesIsIdempotent(t *testing.T) {
	lines := fireTestLines()
	first := selectFireLines(lines, "all", nil, nil)
	if len(first) != 3 {
		t.Fatalf("expected 3 lines on first fire, got %d", len(first))
	}

	// A retried fire sees the lines already preparing and selects nothing.
	for i := range lines {
		if !lines[i].IsVoided && lines[i].KitchenStatus == state.KitchenPending {
			lines[i].KitchenStatus = state.KitchenPreparing
		}
	}
	second := selectFireLines(lines, "all", nil, nil)
	if len(second) != 0 {
		t.Fatalf("expected retried fire to select nothing, got %d lines", len(second))
	}
}

func TestFormatFireNote(t *testing.T) {
	note := fireLineNote{
		Comment:   "allergy: peanuts",
		Modifiers: []string{"no onions", " extra spicy ", ""},
	}
	got := formatFireNote(note)
	expected := "no onions; extra spicy; allergy: peanuts"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}

	if formatFireNote(fireLineNote{}) != "" {
		t.Fatalf("expected empty note to format to an empty string")
	}
}
