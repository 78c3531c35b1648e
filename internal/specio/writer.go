package specio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const outputExt = ".nspec"

// Write emits a normalized spectrum in the same two-column format Read
// accepts, with a descriptive header row.
func Write(w io.Writer, wavelength, flux []float64) error {
	if len(wavelength) != len(flux) {
		return fmt.Errorf("specio: wavelength and flux length mismatch: %d != %d", len(wavelength), len(flux))
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "# Wavelength (Angstrom) Normalized_Flux"); err != nil {
		return fmt.Errorf("specio: writing header: %w", err)
	}
	for i := range wavelength {
		if _, err := fmt.Fprintf(bw, "%.6f %.6f\n", wavelength[i], flux[i]); err != nil {
			return fmt.Errorf("specio: writing row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// Save writes a normalized spectrum to disk.
func Save(path string, wavelength, flux []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("specio: creating %s: %w", path, err)
	}
	if err := Write(f, wavelength, flux); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OutputPath derives the output file name for a normalized spectrum by
// replacing the input extension, or appending when there is none.
func OutputPath(in string) string {
	ext := filepath.Ext(in)
	if len(ext) == 0 {
		return in + outputExt
	}
	return strings.TrimSuffix(in, ext) + outputExt
}
