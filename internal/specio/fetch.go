package specio

import (
	"context"
	"fmt"
	"net/http"

	"nspec/internal/spectrum/model"
)

// Fetch retrieves a spectrum over HTTP and parses it with Read.
func Fetch(ctx context.Context, client *http.Client, url, id string) (model.Spectrum, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Spectrum{}, fmt.Errorf("specio: building request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return model.Spectrum{}, fmt.Errorf("specio: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Spectrum{}, fmt.Errorf("specio: fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	return Read(resp.Body, id)
}
