package entropy

import (
	"math"
	"testing"
)

func TestDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.RandomSeed(), b.RandomSeed(); x != y {
			t.Fatalf("draw %d differs: %d != %d", i, x, y)
		}
	}
	if New(1).AlphaString(20) == New(2).AlphaString(20) {
		t.Error("different seeds produced the same letters")
	}
}

func TestSelectBounds(t *testing.T) {
	e := New(7)
	for i := 0; i < 1000; i++ {
		if e.Select(0) {
			t.Fatal("Select(0) returned true")
		}
		if !e.Select(1.0001) {
			t.Fatal("Select above one returned false")
		}
	}
}

func TestStrings(t *testing.T) {
	e := New(3)
	for _, c := range e.AlphaString(200) {
		if c < 'a' || c > 'z' {
			t.Fatalf("Alpha produced %q", c)
		}
	}
	if got := len([]rune(e.ASCIIString(50))); got != 50 {
		t.Errorf("ASCII length = %d, want 50", got)
	}
}

func TestFromSeed(t *testing.T) {
	tests := []struct {
		seed, n, want int64
	}{
		{7, 5, 2},
		{-7, 5, 2},
		{0, 3, 0},
		{math.MinInt64, 10, math.MaxInt64 % 10},
	}
	for _, tt := range tests {
		if got := FromSeed(tt.seed, tt.n); got != tt.want {
			t.Errorf("FromSeed(%d, %d) = %d, want %d", tt.seed, tt.n, got, tt.want)
		}
	}
}

func TestWeightedSetSkipsZeroWeights(t *testing.T) {
	s := IndexWeights([]int{0, 0, 3, 0, 1})
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	e := New(11)
	seen := map[int]int{}
	for i := 0; i < 4000; i++ {
		seen[s.Select(e)]++
	}
	if len(seen) != 2 || seen[2] == 0 || seen[4] == 0 {
		t.Fatalf("selected %v", seen)
	}
	if seen[2] < seen[4] {
		t.Errorf("weight 3 selected less often than weight 1: %v", seen)
	}
}

func TestReweightedSet(t *testing.T) {
	s := NewReweightedSet[string]()
	s.Add("a", 1)
	s.Add("b", 1)
	s.Add("c", 1)
	s.Remove("a")
	s.Add("b", 0)
	if s.Len() != 1 || !s.Contains("c") || s.Contains("a") || s.Contains("b") {
		t.Fatalf("unexpected contents after removal")
	}
	e := New(5)
	for i := 0; i < 100; i++ {
		if got := s.Select(e); got != "c" {
			t.Fatalf("Select = %q, want c", got)
		}
	}
	s.Add("d", 2)
	s.Add("d", 5)
	if s.total != 6 {
		t.Errorf("total = %v, want 6", s.total)
	}
}
