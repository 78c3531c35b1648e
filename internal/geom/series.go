package geom

import (
	"math"
	"sort"
)

// Series is a plain sequence of sample values.
type Series []float64

func NewSeries(values []float64) Series {
	return values
}

func (s Series) Copy() Series {
	s1 := make(Series, len(s))
	copy(s1, s)
	return s1
}

func (s Series) Sum() float64 {
	var sum float64
	for i := range s {
		sum += s[i]
	}
	return sum
}

func (s Series) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s))
}

// Std is the population standard deviation, divided by N rather than N-1.
func (s Series) Std() float64 {
	if len(s) == 0 {
		return 0
	}
	mean := s.Mean()
	var sum float64
	for i := range s {
		d := s[i] - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(s)))
}

func (s Series) Median() float64 {
	if len(s) == 0 {
		return 0
	}
	s1 := s.Copy()
	sort.Float64s(s1)
	mid := len(s1) / 2
	if len(s1)%2 == 1 {
		return s1[mid]
	}
	return (s1[mid-1] + s1[mid]) / 2
}

// MAD is the median absolute deviation from the series median.
func (s Series) MAD() float64 {
	if len(s) == 0 {
		return 0
	}
	med := s.Median()
	dev := make(Series, len(s))
	for i := range s {
		dev[i] = math.Abs(s[i] - med)
	}
	return dev.Median()
}

func (s Series) Min() float64 {
	min := math.MaxFloat64
	for i := range s {
		if s[i] < min {
			min = s[i]
		}
	}
	return min
}

func (s Series) Max() float64 {
	max := -math.MaxFloat64
	for i := range s {
		if s[i] > max {
			max = s[i]
		}
	}
	return max
}

func (s Series) Equal(s1 Series) bool {
	if len(s) != len(s1) {
		return false
	}
	for i, value := range s {
		if s1[i] != value {
			return false
		}
	}
	return true
}
