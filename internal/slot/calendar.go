// Package slot derives the universe of bookable slots for a room-day.
// Slots are plain integers 1..N; N is per-room configuration, not a law.
package slot

// All returns every slot of an n-slot day in ascending order.
func All(n int) []int {
	slots := make([]int, n)
	for i := range slots {
		slots[i] = i + 1
	}
	return slots
}

// Available returns All(n) minus every slot present in booked, preserving
// ascending order. Duplicates and out-of-range values in booked are
// harmless.
func Available(n int, booked []int) []int {
	taken := make(map[int]struct{}, len(booked))
	for _, s := range booked {
		taken[s] = struct{}{}
	}

	available := make([]int, 0, n)
	for s := 1; s <= n; s++ {
		if _, ok := taken[s]; !ok {
			available = append(available, s)
		}
	}
	return available
}
