package model

import (
	"time"

	"github.com/google/uuid"
)

// Spectrum is an immutable, loaded 1-D signal: wavelength strictly
// ascending, one flux value per wavelength sample.
type Spectrum struct {
	ID         string    `json:"id"`
	Wavelength []float64 `json:"wavelength"`
	Flux       []float64 `json:"flux"`
}

func (s Spectrum) Len() int {
	return len(s.Wavelength)
}

// Step returns the sampling step derived from the first two samples.
// Spectra with fewer than two samples have no usable step.
func (s Spectrum) Step() float64 {
	if len(s.Wavelength) < 2 {
		return 0
	}
	return s.Wavelength[1] - s.Wavelength[0]
}

// Curve holds a fitted continuum, one value per spectrum sample.
type Curve []float64

func NewAnchor(spectrumID string, x, y float64) Anchor {
	return Anchor{
		ID:         uuid.New(),
		SpectrumID: spectrumID,
		X:          x,
		Y:          y,
		CreatedAt:  time.Now(),
	}
}

// Anchor is a user-asserted continuum point. Y is derived from a
// median window around the picked wavelength, not the raw sample.
type Anchor struct {
	ID         uuid.UUID `json:"id"`
	SpectrumID string    `json:"spectrumId"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	CreatedAt  time.Time `json:"createdAt"`
}
