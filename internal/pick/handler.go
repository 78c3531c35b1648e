package pick

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nspec/internal/httputil"
	"nspec/internal/logging"
	"nspec/internal/session"
)

const maxBodyBytes = 64 * 1024 * 1024

const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpReset  = "reset"
)

type request struct {
	SpectrumID string  `json:"id"`
	Op         string  `json:"op"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

type anchorView struct {
	ID        string    `json:"anchorId"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	CreatedAt time.Time `json:"createdAt"`
}

type response struct {
	SpectrumID string       `json:"id"`
	Op         string       `json:"op"`
	Removed    bool         `json:"removed,omitempty"`
	Anchor     *anchorView  `json:"anchor,omitempty"`
	Anchors    []anchorView `json:"anchors"`
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

	resp := response{SpectrumID: req.SpectrumID, Op: req.Op}
	var err error
	switch req.Op {
	case OpAdd:
		var a anchorView
		a, err = h.add(ctx, &req)
		if err == nil {
			resp.Anchor = &a
		}
	case OpRemove:
		resp.Removed, err = h.sessions.RemoveAnchor(ctx, req.SpectrumID, req.X, req.Y)
	case OpReset:
		err = h.sessions.ResetAnchors(ctx, req.SpectrumID)
	default:
		httputil.RespBadRequest(ctx, w, `{"error": "unknown op %q, expected add, remove or reset"}`, req.Op)
		return
	}
	if err != nil {
		respErr(ctx, w, err)
		return
	}

	anchors, err := h.sessions.Anchors(req.SpectrumID)
	if err != nil {
		respErr(ctx, w, err)
		return
	}
	resp.Anchors = make([]anchorView, 0, len(anchors))
	for _, a := range anchors {
		resp.Anchors = append(resp.Anchors, anchorView{
			ID:        a.ID.String(),
			X:         a.X,
			Y:         a.Y,
			CreatedAt: a.CreatedAt,
		})
	}

	bytes, err := json.Marshal(resp)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}

func (h *handler) add(ctx context.Context, req *request) (anchorView, error) {
	a, err := h.sessions.AddAnchor(ctx, req.SpectrumID, req.X)
	if err != nil {
		return anchorView{}, err
	}
	return anchorView{
		ID:        a.ID.String(),
		X:         a.X,
		Y:         a.Y,
		CreatedAt: a.CreatedAt,
	}, nil
}

func respErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		httputil.RespNotFound(ctx, w, `{"error": "%v"}`, err)
	case errors.Is(err, session.ErrSpectrumNotLoaded):
		httputil.RespBadRequest(ctx, w, `{"error": "%v"}`, err)
	default:
		httputil.RespInternalError(ctx, w, `{"error": "pick processing error, %v"}`, err)
	}
}
