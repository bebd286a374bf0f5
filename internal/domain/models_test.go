package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewRoster_AssignsSequentialNumbers(t *testing.T) {
	groups, err := NewRoster([]string{"  Smiths ", "Patels", "Solo"})
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	for i, g := range groups {
		if g.Number != i+1 {
			t.Fatalf("group %d has number %d", i, g.Number)
		}
	}
	if groups[0].Name != "Smiths" {
		t.Fatalf("expected trimmed name, got %q", groups[0].Name)
	}
}

func TestNewRoster_RejectsEmptyAndBlank(t *testing.T) {
	if _, err := NewRoster(nil); !errors.Is(err, ErrRosterEmpty) {
		t.Fatalf("expected ErrRosterEmpty, got %v", err)
	}
	if _, err := NewRoster([]string{"A", "   "}); !errors.Is(err, ErrRosterBlankName) {
		t.Fatalf("expected ErrRosterBlankName, got %v", err)
	}
}

func TestRoom_GroupName(t *testing.T) {
	r := Room{Groups: []Group{{1, "A"}, {2, "B"}}}
	if name, ok := r.GroupName(2); !ok || name != "B" {
		t.Fatalf("GroupName(2) = %q, %v", name, ok)
	}
	if _, ok := r.GroupName(99); ok {
		t.Fatalf("GroupName(99) should not exist")
	}
}

func TestRoom_Expired(t *testing.T) {
	now := time.Now().UTC()
	r := Room{ExpiresAt: now.Add(time.Hour)}
	if r.Expired(now) {
		t.Fatalf("room should not be expired yet")
	}
	if !r.Expired(now.Add(time.Hour)) {
		t.Fatalf("room should be expired exactly at ExpiresAt")
	}
}

func TestPercentagesSumTo100_Tolerance(t *testing.T) {
	cases := []struct {
		in   []float64
		want bool
	}{
		{[]float64{100}, true},
		{[]float64{60, 40}, true},
		{[]float64{33.33, 33.33, 33.34}, true},
		{[]float64{33.33, 33.33, 33.33}, true}, // 99.99 rounds to 100
		{[]float64{50, 49}, false},
		{[]float64{50, 50.6}, false}, // 100.6 rounds to 101
	}
	for _, c := range cases {
		if got := PercentagesSumTo100(c.in); got != c.want {
			t.Fatalf("PercentagesSumTo100(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNewFoodItem_Validation(t *testing.T) {
	now := time.Now().UTC()
	exp := now.Add(time.Hour)

	mk := func(name string, price float64, nums []int, pcts []float64, names []string) error {
		_, err := NewFoodItem("id", "12345", name, price, nums, pcts, names, "alice", now, exp)
		return err
	}

	if err := mk("  ", 5, []int{1}, []float64{100}, []string{"A"}); !errors.Is(err, ErrBlankName) {
		t.Fatalf("blank name: %v", err)
	}
	if err := mk("Pizza", -1, []int{1}, []float64{100}, []string{"A"}); !errors.Is(err, ErrNegativePrice) {
		t.Fatalf("negative price: %v", err)
	}
	if err := mk("Pizza", 5, []int{1, 2}, []float64{100}, []string{"A", "B"}); !errors.Is(err, ErrAllocationShape) {
		t.Fatalf("length mismatch: %v", err)
	}
	if err := mk("Pizza", 5, nil, nil, nil); !errors.Is(err, ErrAllocationShape) {
		t.Fatalf("empty allocation: %v", err)
	}
	if err := mk("Pizza", 5, []int{1, 2}, []float64{50, 49}, []string{"A", "B"}); !errors.Is(err, ErrAllocationSum) {
		t.Fatalf("bad sum: %v", err)
	}
	if err := mk("Pizza", 5, []int{1}, []float64{100}, nil); !errors.Is(err, ErrSnapshotMismatch) {
		t.Fatalf("snapshot mismatch: %v", err)
	}
}

func TestNewFoodItem_KeepsSuppliedPercentages(t *testing.T) {
	now := time.Now().UTC()
	it, err := NewFoodItem("id", "12345", " Pizza ", 30, []int{1, 2, 3},
		[]float64{33.33, 33.33, 33.34}, []string{"A", "B", "C"}, "alice", now, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("NewFoodItem: %v", err)
	}
	if it.Name != "Pizza" {
		t.Fatalf("expected trimmed name, got %q", it.Name)
	}
	if it.Percentages[0] != 33.33 || it.Percentages[2] != 33.34 {
		t.Fatalf("percentages must be stored unrounded: %v", it.Percentages)
	}
	if it.PersonName != "alice" || it.ExpiresAt != now.Add(time.Hour) {
		t.Fatalf("unexpected fields: %+v", it)
	}
}
