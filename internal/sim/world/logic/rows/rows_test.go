package rows

import "testing"

func TestEach_VisitsEveryRowOnce(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		seen := make([]int, 57)
		Each(len(seen), workers, func(y int) { seen[y]++ })
		for y, n := range seen {
			if n != 1 {
				t.Fatalf("workers=%d row %d visited %d times", workers, y, n)
			}
		}
	}
}
