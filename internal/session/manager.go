package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nspec/internal/anchor"
	"nspec/internal/cache"
	"nspec/internal/database"
	"nspec/internal/fitter"
	"nspec/internal/logging"
	"nspec/internal/obs"
	spectrumDb "nspec/internal/spectrum/database"
	"nspec/internal/spectrum/model"

	"go.opencensus.io/stats"
)

// ProvideFn is the contract for returning the Manager instance.
type ProvideFn func(chan<- error) (Manager, error)

var (
	// ErrNoSession is returned for operations on an unknown spectrum id.
	ErrNoSession = errors.New("session: unknown spectrum id")
	// ErrSpectrumNotLoaded is returned when anchors exist for an id but
	// no signal has been ingested for it in this run.
	ErrSpectrumNotLoaded = errors.New("session: spectrum data not loaded")
	// ErrContinuumUnset is returned when normalization is requested
	// before a successful fit, or after the anchor set changed.
	ErrContinuumUnset = errors.New("session: continuum is not fitted")
)

// Manager owns every spectrum session: the immutable signal, the mutable
// anchor set, and the derived continuum and normalized flux. Anchor
// mutations invalidate the derived curves; fitting and normalizing never
// mutate the anchor set.
type Manager interface {
	Run(context.Context) error
	Stop()

	Open(ctx context.Context, sp model.Spectrum) error
	Drop(ctx context.Context, spectrumID string) error
	Keys() []string
	Spectrum(spectrumID string) (model.Spectrum, error)

	AddAnchor(ctx context.Context, spectrumID string, x float64) (model.Anchor, error)
	RemoveAnchor(ctx context.Context, spectrumID string, x, y float64) (bool, error)
	ResetAnchors(ctx context.Context, spectrumID string) error
	Anchors(spectrumID string) ([]model.Anchor, error)

	Fit(ctx context.Context, spectrumID string) (model.Curve, *fitter.Report, error)
	Normalize(ctx context.Context, spectrumID string) ([]float64, error)
	Continuum(spectrumID string) (model.Curve, bool, error)
	Normalized(spectrumID string) ([]float64, bool, error)
}

// state is one spectrum session. The version counter advances on every
// anchor mutation; cached curves carry the version they were computed
// from and are served only while it still matches.
type state struct {
	spectrum model.Spectrum
	anchors  []model.Anchor
	version  uint64

	continuum        model.Curve
	continuumVersion uint64

	normalized        []float64
	normalizedVersion uint64
}

func (s *state) continuumValid() bool {
	return s.continuum != nil && s.continuumVersion == s.version
}

func (s *state) normalizedValid() bool {
	return s.continuumValid() && s.normalized != nil && s.normalizedVersion == s.version
}

func (s *state) invalidate() {
	s.version++
	s.continuum = nil
	s.normalized = nil
}

type Options struct {
	medianWindow     float64
	maxAnchorsStored int
	maxStorageTime   time.Duration
	rebuildDBTime    time.Duration
	dbFlushTime      time.Duration
	dbFlushSize      int
}

type Option func(*manager)

func WithMedianWindow(w float64) Option {
	return func(m *manager) {
		m.opts.medianWindow = w
	}
}

func WithMaxAnchorsStored(n int) Option {
	return func(m *manager) {
		m.opts.maxAnchorsStored = n
	}
}

func WithMaxStorageTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.maxStorageTime = t
	}
}

func WithRebuildDBTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.rebuildDBTime = t
	}
}

func WithDBFlushTime(t time.Duration) Option {
	return func(m *manager) {
		m.opts.dbFlushTime = t
	}
}

func WithDBFlushSize(n int) Option {
	return func(m *manager) {
		m.opts.dbFlushSize = n
	}
}

// WithCache attaches a continuum cache consulted before refitting.
func WithCache(c *cache.Cache) Option {
	return func(m *manager) {
		m.cache = c
	}
}

func New(
	db *database.DB,
	provideFitterFn fitter.ProvideFn,
	shutdownCh chan<- error,
	opts ...Option,
) (*manager, error) {
	if provideFitterFn == nil {
		return nil, fmt.Errorf("session: fitter provider is not defined")
	}

	m := &manager{
		anchorDB:        spectrumDb.New(db),
		sessions:        map[string]*state{},
		fitters:         map[string]fitter.Fitter{},
		provideFitterFn: provideFitterFn,
		shutDownCh:      shutdownCh,
	}
	for _, f := range opts {
		f(m)
	}

	m.dbTxExecutor = newDBTxExecutor(dbTxExecutorOptions{
		flushTime: m.opts.dbFlushTime,
		flushSize: m.opts.dbFlushSize,
	}, shutdownCh)

	m.dbScheduler = newDBScheduler(dbSchedulerConfig{
		maxAnchorsStored: m.opts.maxAnchorsStored,
		maxStorageTime:   m.opts.maxStorageTime,
		rebuildDBTime:    m.opts.rebuildDBTime,
	})

	return m, nil
}

type manager struct {
	mtx sync.RWMutex

	opts Options

	anchorDB     *spectrumDb.DB
	dbTxExecutor *dbTxExecutor
	dbScheduler  *dbScheduler
	cache        *cache.Cache

	sessions map[string]*state

	provideFitterFn fitter.ProvideFn
	fitters         map[string]fitter.Fitter

	shutDownCh chan<- error
	closed     bool
	cancel     func()
}

// Run starts the background persistence services and restores stored
// anchor sets into memory.
func (m *manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go m.dbTxExecutor.flusher(ctx, m.anchorDB.AppendMany)
	go m.dbScheduler.schedule(ctx, scheduleDeps{
		fetchKeys:       m.anchorDB.Keys,
		countBySpectrum: m.anchorDB.CountBySpectrum,
		fetchBySpectrum: m.anchorDB.FindBySpectrum,
		deleteAnchors:   m.anchorDB.DeleteMany,
	})

	if err := m.bulkLoad(ctx); err != nil {
		return fmt.Errorf("can not start session manager: %w", err)
	}

	return nil
}

func (m *manager) Stop() {
	m.mtx.Lock()
	m.closed = true
	m.mtx.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

// bulkLoad restores persisted anchors so a restarted service keeps the
// picked continuum points for every known spectrum.
func (m *manager) bulkLoad(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	anchors, err := m.anchorDB.FindAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("fetching stored anchors: %w", err)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	for _, a := range anchors {
		s, ok := m.sessions[a.SpectrumID]
		if !ok {
			s = &state{}
			m.sessions[a.SpectrumID] = s
		}
		s.anchors = append(s.anchors, a)
	}
	if len(anchors) > 0 {
		logger.Infof("restored %d anchors for %d spectra", len(anchors), len(m.sessions))
	}

	return nil
}

// Open attaches a loaded spectrum to its session, creating the session
// when the id is new. Anchors restored from storage are kept.
func (m *manager) Open(ctx context.Context, sp model.Spectrum) error {
	if sp.Len() == 0 {
		return fmt.Errorf("session: refusing to open empty spectrum %q", sp.ID)
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.closed {
		return fmt.Errorf("session: shutting down")
	}

	s, ok := m.sessions[sp.ID]
	if !ok {
		s = &state{}
		m.sessions[sp.ID] = s
	}
	s.spectrum = sp
	s.invalidate()

	logging.FromContext(ctx).Infof("opened spectrum %s with %d samples", sp.ID, sp.Len())
	return nil
}

// Drop removes a session and its stored anchors.
func (m *manager) Drop(ctx context.Context, spectrumID string) error {
	m.mtx.Lock()
	_, ok := m.sessions[spectrumID]
	delete(m.sessions, spectrumID)
	delete(m.fitters, spectrumID)
	m.mtx.Unlock()

	if !ok {
		return ErrNoSession
	}
	return m.anchorDB.DeleteSpectrum(ctx, spectrumID)
}

func (m *manager) Keys() []string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	keys := make([]string, 0, len(m.sessions))
	for k := range m.sessions {
		keys = append(keys, k)
	}
	return keys
}

func (m *manager) Spectrum(spectrumID string) (model.Spectrum, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		return model.Spectrum{}, ErrNoSession
	}
	if s.spectrum.Len() == 0 {
		return model.Spectrum{}, ErrSpectrumNotLoaded
	}
	return s.spectrum, nil
}

// AddAnchor derives a median-smoothed anchor at the picked wavelength
// and appends it to the session's set. Derived curves become stale.
func (m *manager) AddAnchor(ctx context.Context, spectrumID string, x float64) (model.Anchor, error) {
	m.mtx.Lock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		m.mtx.Unlock()
		return model.Anchor{}, ErrNoSession
	}
	if s.spectrum.Len() == 0 {
		m.mtx.Unlock()
		return model.Anchor{}, ErrSpectrumNotLoaded
	}

	a := anchor.Pick(s.spectrum, x, m.opts.medianWindow)
	s.anchors = append(s.anchors, a)
	s.invalidate()
	m.mtx.Unlock()

	m.dbTxExecutor.append(ctx, a, m.anchorDB.AppendMany)
	return a, nil
}

// RemoveAnchor drops the anchor nearest to the picked point. Removing
// from an empty set is a silent no-op.
func (m *manager) RemoveAnchor(ctx context.Context, spectrumID string, x, y float64) (bool, error) {
	m.mtx.Lock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		m.mtx.Unlock()
		return false, ErrNoSession
	}

	before := s.anchors
	after, removed := anchor.RemoveNearest(s.anchors, x, y)
	if !removed {
		m.mtx.Unlock()
		return false, nil
	}
	s.anchors = after
	s.invalidate()
	var dropped model.Anchor
	for _, a := range before {
		found := false
		for _, b := range after {
			if a.ID == b.ID {
				found = true
				break
			}
		}
		if !found {
			dropped = a
			break
		}
	}
	m.mtx.Unlock()

	if err := m.anchorDB.Delete(ctx, dropped); err != nil {
		logging.FromContext(ctx).Errorf("deleting anchor %s: %v", dropped.ID, err)
	}
	return true, nil
}

// ResetAnchors clears the whole anchor set and both derived curves.
func (m *manager) ResetAnchors(ctx context.Context, spectrumID string) error {
	m.mtx.Lock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		m.mtx.Unlock()
		return ErrNoSession
	}
	s.anchors = nil
	s.invalidate()
	m.mtx.Unlock()

	return m.anchorDB.DeleteSpectrum(ctx, spectrumID)
}

func (m *manager) Anchors(spectrumID string) ([]model.Anchor, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		return nil, ErrNoSession
	}
	out := make([]model.Anchor, len(s.anchors))
	copy(out, s.anchors)
	return out, nil
}

// Fit runs the robust continuum fit over the session's current anchor
// set. On failure the previous continuum, if any, stays intact.
func (m *manager) Fit(ctx context.Context, spectrumID string) (model.Curve, *fitter.Report, error) {
	m.mtx.Lock()
	if m.closed {
		m.mtx.Unlock()
		return nil, nil, fmt.Errorf("session: shutting down")
	}
	s, ok := m.sessions[spectrumID]
	if !ok {
		m.mtx.Unlock()
		return nil, nil, ErrNoSession
	}
	if s.spectrum.Len() == 0 {
		m.mtx.Unlock()
		return nil, nil, ErrSpectrumNotLoaded
	}

	f, ok := m.fitters[spectrumID]
	if !ok {
		newFitter, err := m.provideFitterFn()
		if err != nil {
			m.mtx.Unlock()
			return nil, nil, fmt.Errorf("can not create fitter instance: %w", err)
		}
		f = newFitter
		m.fitters[spectrumID] = newFitter
	}

	anchors := make([]model.Anchor, len(s.anchors))
	copy(anchors, s.anchors)
	version := s.version
	wavelength := s.spectrum.Wavelength
	m.mtx.Unlock()

	if m.cache != nil {
		if curve, ok, err := m.cache.GetContinuum(ctx, spectrumID, version); err != nil {
			logging.FromContext(ctx).Debugf("continuum cache read: %v", err)
		} else if ok {
			m.storeContinuum(spectrumID, version, curve)
			return curve, nil, nil
		}
	}

	started := time.Now()
	curve, report, err := f.Fit(anchors, wavelength)
	if err != nil {
		return nil, nil, err
	}

	stats.Record(ctx,
		obs.MFitLatencyMs.M(float64(time.Since(started).Nanoseconds())/1e6),
		obs.MFitIterations.M(int64(report.Iterations)),
		obs.MAnchorsRejected.M(int64(report.Rejected)),
	)

	m.storeContinuum(spectrumID, version, curve)
	if m.cache != nil {
		if err := m.cache.PutContinuum(ctx, spectrumID, version, curve); err != nil {
			logging.FromContext(ctx).Debugf("continuum cache write: %v", err)
		}
	}

	return curve, report, nil
}

// storeContinuum installs a fitted curve unless the anchor set moved on
// while the fit was running.
func (m *manager) storeContinuum(spectrumID string, version uint64, curve model.Curve) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	s, ok := m.sessions[spectrumID]
	if !ok || s.version != version {
		return
	}
	s.continuum = curve
	s.continuumVersion = version
	s.normalized = nil
}

// Normalize divides the signal by the current continuum. The division
// follows the curve wherever it goes; values at or near zero produce
// infinities rather than an error.
func (m *manager) Normalize(ctx context.Context, spectrumID string) ([]float64, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		return nil, ErrNoSession
	}
	if !s.continuumValid() {
		return nil, ErrContinuumUnset
	}

	normalized := make([]float64, s.spectrum.Len())
	for i := range normalized {
		normalized[i] = s.spectrum.Flux[i] / s.continuum[i]
	}
	s.normalized = normalized
	s.normalizedVersion = s.version

	stats.Record(ctx, obs.MNormalizeCount.M(1))

	out := make([]float64, len(normalized))
	copy(out, normalized)
	return out, nil
}

func (m *manager) Continuum(spectrumID string) (model.Curve, bool, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		return nil, false, ErrNoSession
	}
	if !s.continuumValid() {
		return nil, false, nil
	}
	out := make(model.Curve, len(s.continuum))
	copy(out, s.continuum)
	return out, true, nil
}

func (m *manager) Normalized(spectrumID string) ([]float64, bool, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	s, ok := m.sessions[spectrumID]
	if !ok {
		return nil, false, ErrNoSession
	}
	if !s.normalizedValid() {
		return nil, false, nil
	}
	out := make([]float64, len(s.normalized))
	copy(out, s.normalized)
	return out, true, nil
}
