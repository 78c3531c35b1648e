package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"nspec/internal/httputil"
	"nspec/internal/logging"
	"nspec/internal/session"
	"nspec/internal/specio"
	"nspec/internal/spectrum/model"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	SpectrumID string    `json:"id"`
	URL        string    `json:"url"`
	Wavelength []float64 `json:"wavelength"`
	Flux       []float64 `json:"flux"`
}

type response struct {
	SpectrumID string `json:"id"`
	Samples    int    `json:"samples"`
}

func NewHandler(cfg *Config, sessions session.Manager) (http.Handler, error) {
	client, err := httputil.NewClientFromConfig(httputil.HTTPClientConfig{
		BearerToken: cfg.FetchBearerToken,
	}, false)
	if err != nil {
		return nil, fmt.Errorf("ingest: building fetch client: %w", err)
	}
	return &handler{
		sessions: sessions,
		client:   client,
		cfg:      cfg,
	}, nil
}

type handler struct {
	sessions session.Manager
	client   *http.Client
	cfg      *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.SpectrumID) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "id must not be empty"}`)
		return
	}

	sp, err := h.spectrumFor(ctx, &req)
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		return
	}
	if sp.Len() > h.cfg.MaxSamples {
		httputil.RespBadRequest(ctx, w, `{"error": "spectrum is too large, max allowed samples is %d"}`, h.cfg.MaxSamples)
		return
	}

	if err := h.sessions.Open(ctx, sp); err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "opening spectrum session, %v"}`, err)
		return
	}

	bytes, err := json.Marshal(response{SpectrumID: sp.ID, Samples: sp.Len()})
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

func (h *handler) spectrumFor(ctx context.Context, req *request) (model.Spectrum, error) {
	if len(req.URL) > 0 {
		return specio.Fetch(ctx, h.client, req.URL, req.SpectrumID)
	}

	if len(req.Wavelength) != len(req.Flux) {
		return model.Spectrum{}, fmt.Errorf("wavelength and flux length mismatch: %d != %d", len(req.Wavelength), len(req.Flux))
	}
	if len(req.Wavelength) == 0 {
		return model.Spectrum{}, fmt.Errorf("spectrum must contain at least one sample")
	}
	for i := 1; i < len(req.Wavelength); i++ {
		if req.Wavelength[i] <= req.Wavelength[i-1] {
			return model.Spectrum{}, fmt.Errorf("wavelength must be strictly ascending at index %d", i)
		}
	}

	return model.Spectrum{
		ID:         req.SpectrumID,
		Wavelength: req.Wavelength,
		Flux:       req.Flux,
	}, nil
}
