package anchor

import (
	"math"

	"nspec/internal/geom"
	"nspec/internal/spectrum/model"
)

// Pick converts a picked wavelength into an anchor. The anchor keeps
// the picked x; its y is the median of the flux over a window of the
// given width (in wavelength units) centered on the nearest sample,
// which damps local noise at selection time. A zero width, or a
// spectrum too short to derive a sampling step, falls back to the raw
// flux at the nearest sample.
func Pick(sp model.Spectrum, x, window float64) model.Anchor {
	idx := NearestIndex(sp.Wavelength, x)

	half := 0
	if step := sp.Step(); step > 0 {
		half = int(math.Floor(window / step / 2))
	}

	start := idx - half
	if start < 0 {
		start = 0
	}
	end := idx + half
	if end > sp.Len()-1 {
		end = sp.Len() - 1
	}

	y := sp.Flux[idx]
	if start < end {
		y = geom.Series(sp.Flux[start : end+1]).Median()
	}
	return model.NewAnchor(sp.ID, x, y)
}

// NearestIndex returns the index of the sample closest to x, the first
// one on ties. Wavelengths are strictly ascending but the scan is
// linear; anchor picking is far from hot.
func NearestIndex(xs []float64, x float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i := range xs {
		d := math.Abs(xs[i] - x)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// RemoveNearest drops the anchor closest to (x, y) in the Euclidean
// sense, the first one on ties. Removing from an empty set is a normal
// no-op, reported through the second return value.
func RemoveNearest(anchors []model.Anchor, x, y float64) ([]model.Anchor, bool) {
	if len(anchors) == 0 {
		return anchors, false
	}
	best := 0
	bestDist := math.Inf(1)
	for i := range anchors {
		d := geom.EuclideanDistance(anchors[i].X, anchors[i].Y, x, y)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	out := make([]model.Anchor, 0, len(anchors)-1)
	out = append(out, anchors[:best]...)
	out = append(out, anchors[best+1:]...)
	return out, true
}
