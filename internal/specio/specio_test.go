package specio

import (
	"errors"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	t.Parallel()
	src := strings.Join([]string{
		"# comment line",
		"",
		"4000.0 1.2",
		"4001.0 1.3 ignored-extra-column",
		"  4002.0\t1.1  ",
	}, "\n")

	sp, err := Read(strings.NewReader(src), "test-spectrum")
	if err != nil {
		t.Fatalf("reading the spectrum, err got: %v, expected: nil", err)
	}
	if sp.ID != "test-spectrum" {
		t.Errorf("the spectrum id got: %v, expected: %v", sp.ID, "test-spectrum")
	}
	if sp.Len() != 3 {
		t.Fatalf("the sample count got: %v, expected: %v", sp.Len(), 3)
	}
	if sp.Wavelength[0] != 4000.0 || sp.Flux[0] != 1.2 {
		t.Errorf("the first sample got: (%v, %v), expected: (4000, 1.2)", sp.Wavelength[0], sp.Flux[0])
	}
	if sp.Wavelength[2] != 4002.0 || sp.Flux[2] != 1.1 {
		t.Errorf("the last sample got: (%v, %v), expected: (4002, 1.1)", sp.Wavelength[2], sp.Flux[2])
	}
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		src      string
		expected error
	}{
		{name: "empty_source", src: "# only comments\n", expected: ErrNoSamples},
		{name: "descending_wavelength", src: "2.0 1.0\n1.0 1.0\n", expected: ErrNotAscending},
		{name: "duplicate_wavelength", src: "1.0 1.0\n1.0 2.0\n", expected: ErrNotAscending},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Read(strings.NewReader(test.src), "test-spectrum")
			if !errors.Is(err, test.expected) {
				t.Errorf("reading the spectrum, err got: %v, expected: %v", err, test.expected)
			}
		})
	}
}

func TestRead_BadRows(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
	}{
		{name: "single_column", src: "4000.0\n"},
		{name: "bad_wavelength", src: "abc 1.0\n"},
		{name: "bad_flux", src: "4000.0 abc\n"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Read(strings.NewReader(test.src), "test-spectrum"); err == nil {
				t.Errorf("reading a malformed row, err got: nil, expected an error")
			}
		})
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	if err := Write(&sb, []float64{4000, 4001}, []float64{1.0, 0.5}); err != nil {
		t.Fatalf("writing the spectrum, err got: %v, expected: nil", err)
	}
	expected := "# Wavelength (Angstrom) Normalized_Flux\n" +
		"4000.000000 1.000000\n" +
		"4001.000000 0.500000\n"
	if sb.String() != expected {
		t.Errorf("the written output got: %q, expected: %q", sb.String(), expected)
	}
}

func TestWrite_LengthMismatch(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	if err := Write(&sb, []float64{4000}, []float64{1.0, 0.5}); err == nil {
		t.Errorf("writing mismatched columns, err got: nil, expected an error")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	wavelength := []float64{4000, 4000.5, 4001}
	flux := []float64{1.0, 0.25, 0.5}
	if err := Write(&sb, wavelength, flux); err != nil {
		t.Fatalf("writing the spectrum, err got: %v, expected: nil", err)
	}
	sp, err := Read(strings.NewReader(sb.String()), "test-spectrum")
	if err != nil {
		t.Fatalf("reading the written spectrum, err got: %v, expected: nil", err)
	}
	if sp.Len() != len(wavelength) {
		t.Fatalf("the sample count got: %v, expected: %v", sp.Len(), len(wavelength))
	}
	for i := range wavelength {
		if sp.Wavelength[i] != wavelength[i] || sp.Flux[i] != flux[i] {
			t.Errorf(
				"the sample %d got: (%v, %v), expected: (%v, %v)",
				i, sp.Wavelength[i], sp.Flux[i], wavelength[i], flux[i])
		}
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "replaces_extension", in: "data/vega.txt", expected: "data/vega.nspec"},
		{name: "no_extension", in: "vega", expected: "vega.nspec"},
		{name: "dotted_name", in: "vega.flux.dat", expected: "vega.flux.nspec"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := OutputPath(test.in); got != test.expected {
				t.Errorf("the output path got: %v, expected: %v", got, test.expected)
			}
		})
	}
}
