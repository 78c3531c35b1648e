package fit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"nspec/internal/fitter/continuum"
	"nspec/internal/httputil"
	"nspec/internal/logging"
	"nspec/internal/session"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	SpectrumID string `json:"id"`
}

type reportView struct {
	Iterations int     `json:"iterations"`
	Kept       int     `json:"kept"`
	Rejected   int     `json:"rejected"`
	Converged  bool    `json:"converged"`
	Scatter    float64 `json:"scatter"`
}

type response struct {
	SpectrumID string      `json:"id"`
	Continuum  []float64   `json:"continuum"`
	Cached     bool        `json:"cached"`
	Report     *reportView `json:"report,omitempty"`
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

	curve, report, err := h.sessions.Fit(ctx, req.SpectrumID)
	if err != nil {
		var splineErr *continuum.SplineError
		switch {
		case errors.Is(err, session.ErrNoSession):
			httputil.RespNotFound(ctx, w, `{"error": "%v"}`, err)
		case errors.Is(err, session.ErrSpectrumNotLoaded),
			errors.Is(err, continuum.ErrTooFewAnchors),
			errors.As(err, &splineErr):
			httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
		default:
			httputil.RespInternalError(ctx, w, `{"error": "fit processing error, %v"}`, err)
		}
		return
	}

	resp := response{
		SpectrumID: req.SpectrumID,
		Continuum:  curve,
		Cached:     report == nil,
	}
	if report != nil {
		resp.Report = &reportView{
			Iterations: report.Iterations,
			Kept:       report.Kept,
			Rejected:   report.Rejected,
			Converged:  report.Converged,
			Scatter:    report.Scatter,
		}
	}

	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
