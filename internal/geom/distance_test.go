package geom

import "testing"

func TestEuclideanDistance(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		x, y     float64
		x1, y1   float64
		expected float64
	}{
		{name: "positive", x: 0, y: 0, x1: 3, y1: 4, expected: 5},
		{name: "same_point", x: 2, y: 2, x1: 2, y1: 2, expected: 0},
		{name: "negative_coords", x: -3, y: -4, x1: 0, y1: 0, expected: 5},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := EuclideanDistance(test.x, test.y, test.x1, test.y1)
			if got != test.expected {
				t.Errorf("the distance is incorrect got: %v, expected: %v", got, test.expected)
			}
		})
	}
}
