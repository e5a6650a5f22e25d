package entropy

import "sort"

// WeightedSet selects items with probability proportional to their weight.
// Items with a non-positive weight are never selected.
type WeightedSet[T any] struct {
	items []T
	cumul []float64
}

func NewWeightedSet[T any]() *WeightedSet[T] {
	return &WeightedSet[T]{}
}

// IndexWeights builds a set over the indices of weights, so weights[i] is
// the weight of the value i.
func IndexWeights(weights []int) *WeightedSet[int] {
	s := NewWeightedSet[int]()
	for i, w := range weights {
		s.Add(i, float64(w))
	}
	return s
}

func (s *WeightedSet[T]) Add(item T, weight float64) {
	if weight <= 0 {
		return
	}
	s.items = append(s.items, item)
	s.cumul = append(s.cumul, s.Total()+weight)
}

func (s *WeightedSet[T]) Len() int { return len(s.items) }

func (s *WeightedSet[T]) Total() float64 {
	if len(s.cumul) == 0 {
		return 0
	}
	return s.cumul[len(s.cumul)-1]
}

// Items returns the selectable items in insertion order.
func (s *WeightedSet[T]) Items() []T { return s.items }

// Select draws an item. The set must not be empty.
func (s *WeightedSet[T]) Select(e *Entropy) T {
	x := e.Float64() * s.Total()
	i := sort.SearchFloat64s(s.cumul, x)
	for i < len(s.cumul)-1 && s.cumul[i] <= x {
		i++
	}
	return s.items[i]
}

type weighted[T comparable] struct {
	item   T
	weight float64
}

// ReweightedSet is a weighted set that supports removal and changing
// weights. Selection is linear in the number of items.
type ReweightedSet[T comparable] struct {
	entries []weighted[T]
	index   map[T]int
	total   float64
}

func NewReweightedSet[T comparable]() *ReweightedSet[T] {
	return &ReweightedSet[T]{index: map[T]int{}}
}

// Add inserts item or replaces its weight. A non-positive weight removes it.
func (s *ReweightedSet[T]) Add(item T, weight float64) {
	if weight <= 0 {
		s.Remove(item)
		return
	}
	if i, ok := s.index[item]; ok {
		s.total += weight - s.entries[i].weight
		s.entries[i].weight = weight
		return
	}
	s.index[item] = len(s.entries)
	s.entries = append(s.entries, weighted[T]{item: item, weight: weight})
	s.total += weight
}

func (s *ReweightedSet[T]) Remove(item T) {
	i, ok := s.index[item]
	if !ok {
		return
	}
	s.total -= s.entries[i].weight
	last := len(s.entries) - 1
	if i != last {
		s.entries[i] = s.entries[last]
		s.index[s.entries[i].item] = i
	}
	s.entries = s.entries[:last]
	delete(s.index, item)
	if len(s.entries) == 0 {
		s.total = 0
	}
}

func (s *ReweightedSet[T]) Contains(item T) bool {
	_, ok := s.index[item]
	return ok
}

func (s *ReweightedSet[T]) Len() int { return len(s.entries) }

// Select draws an item. The set must not be empty.
func (s *ReweightedSet[T]) Select(e *Entropy) T {
	x := e.Float64() * s.total
	for _, entry := range s.entries {
		if x < entry.weight {
			return entry.item
		}
		x -= entry.weight
	}
	return s.entries[len(s.entries)-1].item
}
