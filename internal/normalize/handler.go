package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"nspec/internal/httputil"
	"nspec/internal/logging"
	"nspec/internal/session"

	"golang.org/x/sync/errgroup"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	SpectrumIDs []string `json:"ids"`
}

type spectrumResult struct {
	SpectrumID string    `json:"id"`
	Flux       []float64 `json:"flux"`
}

type response struct {
	Data []spectrumResult `json:"data"`
}

func NewHandler(cfg *Config, sessions session.Manager) (http.Handler, error) {
	return &handler{
		sessions: sessions,
		cfg:      cfg,
	}, nil
}

type handler struct {
	sessions session.Manager
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

	if len(req.SpectrumIDs) == 0 {
		httputil.RespBadRequest(ctx, w, `{"error": "ids must not be empty"}`)
		return
	}
	if len(req.SpectrumIDs) > h.cfg.MaxIDsLen {
		httputil.RespBadRequest(ctx, w, `{"error": "ids is too large, max allowed len is %d"}`, h.cfg.MaxIDsLen)
		return
	}

	var results []spectrumResult
	errGrp := errgroup.Group{}
	mtx := sync.Mutex{}
	for _, id := range req.SpectrumIDs {
		id := id
		errGrp.Go(func() error {
			flux, err := h.sessions.Normalize(ctx, id)
			if err != nil {
				return fmt.Errorf("normalize %s: %w", id, err)
			}
			mtx.Lock()
			results = append(results, spectrumResult{SpectrumID: id, Flux: flux})
			mtx.Unlock()
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		switch {
		case errors.Is(err, session.ErrNoSession):
			httputil.RespNotFound(ctx, w, `{"error": "%v"}`, err)
		case errors.Is(err, session.ErrContinuumUnset):
			httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		default:
			httputil.RespInternalError(ctx, w, `{"error": "normalize processing error, %v"}`, err)
		}
		return
	}

	bytes, err := json.Marshal(response{Data: results})
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
