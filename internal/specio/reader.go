package specio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"nspec/internal/spectrum/model"
)

var (
	// ErrNoSamples is returned when a source contains no data rows.
	ErrNoSamples = errors.New("specio: no samples found")
	// ErrNotAscending is returned when the wavelength column is not
	// strictly increasing.
	ErrNotAscending = errors.New("specio: wavelength must be strictly ascending")
)

// Read parses a two-column whitespace-separated spectrum. Blank lines
// and lines starting with '#' are skipped; extra columns are ignored.
func Read(r io.Reader, id string) (model.Spectrum, error) {
	sp := model.Spectrum{ID: id}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if len(text) == 0 || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return model.Spectrum{}, fmt.Errorf("specio: line %d: expected at least 2 columns, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return model.Spectrum{}, fmt.Errorf("specio: line %d: bad wavelength %q: %w", line, fields[0], err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return model.Spectrum{}, fmt.Errorf("specio: line %d: bad flux %q: %w", line, fields[1], err)
		}
		if n := len(sp.Wavelength); n > 0 && x <= sp.Wavelength[n-1] {
			return model.Spectrum{}, fmt.Errorf("%w: line %d", ErrNotAscending, line)
		}
		sp.Wavelength = append(sp.Wavelength, x)
		sp.Flux = append(sp.Flux, y)
	}
	if err := scanner.Err(); err != nil {
		return model.Spectrum{}, fmt.Errorf("specio: reading source: %w", err)
	}
	if sp.Len() == 0 {
		return model.Spectrum{}, ErrNoSamples
	}

	return sp, nil
}

// Load reads a spectrum from disk, deriving the id from the file name.
func Load(path string) (model.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Spectrum{}, fmt.Errorf("specio: opening %s: %w", path, err)
	}
	defer f.Close()

	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))
	return Read(f, id)
}
