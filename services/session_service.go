package services

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stylefit/catalog"
	"stylefit/metrics"
	"stylefit/models"
	"stylefit/pipeline"
	"stylefit/utils"
)

// Broadcaster pushes realtime events to whoever watches a session.
type Broadcaster interface {
	Broadcast(sessionID string, payload any)
}

type sessionCloser interface {
	CloseSession(sessionID string)
}

type ReportMailer interface {
	SendText(ctx context.Context, to, subject, body string) error
}

type SessionServiceConfig struct {
	Store    *SessionStore
	Catalog  *catalog.Catalog
	Photos   PhotoStore
	Events   Broadcaster
	Pipeline pipeline.Config
	// MaxPhotoBytes caps uploads; zero disables the check.
	MaxPhotoBytes int64

	// optional collaborators; nil means the feature reports ErrServiceUnavailable
	Payments PaymentGateway
	Orders   OrderNotifier
	Mailer   ReportMailer
	Premium  PremiumConfig

	Logger *zap.Logger
}

// SessionService drives the wizard for many clients. All mutations of one
// session are serialised, so each session sees a single ordered event stream.
type SessionService struct {
	store    *SessionStore
	catalog  *catalog.Catalog
	photos   PhotoStore
	events   Broadcaster
	pipeCfg  pipeline.Config
	maxPhoto int64
	payments PaymentGateway
	orders   OrderNotifier
	mailer   ReportMailer
	premium  PremiumConfig
	logger   *zap.Logger
	now      func() time.Time

	locks *keyedMutex

	runsMu  sync.Mutex
	runs    map[string]*runEntry
	baseCtx context.Context
	stop    context.CancelFunc
}

func NewSessionService(cfg SessionServiceConfig) *SessionService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	photos := cfg.Photos
	if photos == nil {
		photos = InlinePhotoStore{}
	}
	events := cfg.Events
	if events == nil {
		events = nopBroadcaster{}
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &SessionService{
		store:    cfg.Store,
		catalog:  cat,
		photos:   photos,
		events:   events,
		pipeCfg:  cfg.Pipeline,
		maxPhoto: cfg.MaxPhotoBytes,
		payments: cfg.Payments,
		orders:   cfg.Orders,
		mailer:   cfg.Mailer,
		premium:  cfg.Premium.withDefaults(),
		logger:   logger,
		now:      time.Now,
		locks:    newKeyedMutex(),
		runs:     make(map[string]*runEntry),
		baseCtx:  baseCtx,
		stop:     stop,
	}
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, any) {}

// SessionState is a session together with the wizard chrome for its step.
type SessionState struct {
	Session *models.Session `json:"session"`
	View    models.StepView `json:"view"`
}

func stateOf(s *models.Session) *SessionState {
	return &SessionState{Session: s, View: View(s.CurrentStep)}
}

func (svc *SessionService) Create(ctx context.Context) (*SessionState, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	s := models.NewSession(id.String())
	if err := svc.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	svc.logger.Info("session created", zap.String("session_id", s.ID))
	return stateOf(s), nil
}

func (svc *SessionService) Get(ctx context.Context, id string) (*SessionState, error) {
	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return stateOf(s), nil
}

// mutate loads the session under its lock, applies fn and saves when fn succeeds.
func (svc *SessionService) mutate(ctx context.Context, id string, fn func(s *models.Session) error) (*models.Session, error) {
	unlock := svc.locks.Lock(id)
	defer unlock()
	return svc.mutateLocked(ctx, id, fn)
}

func (svc *SessionService) mutateLocked(ctx context.Context, id string, fn func(s *models.Session) error) (*models.Session, error) {
	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return s, err
	}
	if err := svc.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func (svc *SessionService) transitioned(s *models.Session, from models.Step) {
	if s.CurrentStep == from {
		return
	}
	metrics.ObserveTransition(from.String(), s.CurrentStep.String())
	svc.events.Broadcast(s.ID, map[string]any{
		"kind": "step.changed",
		"view": View(s.CurrentStep),
	})
}

// AttachPhoto stores an uploaded image and marks the upload step satisfied.
func (svc *SessionService) AttachPhoto(ctx context.Context, id, contentType string, data []byte) (*SessionState, error) {
	if err := utils.CheckImageType(contentType); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &utils.InputError{Field: "photo", Msg: "the uploaded file is empty"}
	}
	if svc.maxPhoto > 0 && int64(len(data)) > svc.maxPhoto {
		return nil, &utils.InputError{Field: "photo", Msg: fmt.Sprintf("photo must be at most %d bytes", svc.maxPhoto)}
	}
	s, err := svc.mutate(ctx, id, func(s *models.Session) error {
		if s.CurrentStep != models.StepUpload {
			return invalidTransition(s, "attach photo")
		}
		ref, err := svc.photos.Put(ctx, s.ID, contentType, data)
		if err != nil {
			return err
		}
		return AttachPhoto(s, ref)
	})
	if err != nil {
		return nil, err
	}
	return stateOf(s), nil
}

// Advance moves to measurements if a photo is attached. ok is false when the
// guard did not pass; the session is then unchanged.
func (svc *SessionService) Advance(ctx context.Context, id string) (*SessionState, bool, error) {
	var advanced bool
	s, err := svc.mutate(ctx, id, func(s *models.Session) error {
		advanced = Advance(s)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if advanced {
		svc.transitioned(s, models.StepUpload)
	}
	return stateOf(s), advanced, nil
}

func (svc *SessionService) Back(ctx context.Context, id string) (*SessionState, error) {
	unlock := svc.locks.Lock(id)
	defer unlock()

	s, err := svc.mutateLocked(ctx, id, Back)
	if err != nil {
		return nil, err
	}
	if svc.cancelRun(id) {
		metrics.ObservePipeline("cancelled")
	}
	svc.transitioned(s, models.StepMeasurements)
	return stateOf(s), nil
}

// Analyze validates and classifies the measurements, then starts the loading
// pipeline. The session enters Results when the pipeline completes.
func (svc *SessionService) Analyze(ctx context.Context, id, rawHeight, rawWeight, rawStyle string) (*SessionState, error) {
	if svc.baseCtx.Err() != nil {
		return nil, fmt.Errorf("%w: shutting down", models.ErrServiceUnavailable)
	}

	unlock := svc.locks.Lock(id)
	defer unlock()

	var analysis models.Analysis
	s, err := svc.mutateLocked(ctx, id, func(s *models.Session) error {
		if s.Loading && !svc.hasRun(id) {
			// the run that owned this flag died with a previous process
			svc.logger.Info("resuming orphaned analysis", zap.String("session_id", id))
			s.Loading = false
		}
		a, err := Analyze(s, rawHeight, rawWeight, rawStyle)
		analysis = a
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveClassification(string(analysis.BodyType), string(s.StylePreference))
	svc.logger.Info("analysis started",
		zap.String("session_id", id),
		zap.Float64("bmi", analysis.BMI),
		zap.String("body_type", string(analysis.BodyType)),
		zap.String("style", string(s.StylePreference)),
	)

	svc.startRun(id)
	return stateOf(s), nil
}

type runEntry struct {
	run *pipeline.Run
}

func (svc *SessionService) startRun(id string) {
	svc.runsMu.Lock()
	defer svc.runsMu.Unlock()

	if prev := svc.runs[id]; prev != nil {
		prev.run.Cancel()
	}
	entry := &runEntry{}
	entry.run = pipeline.Start(svc.baseCtx, svc.pipeCfg, func(ev pipeline.Event) {
		svc.events.Broadcast(id, map[string]any{
			"kind":  "loading." + string(ev.Kind),
			"stage": ev.Stage,
			"name":  ev.Name,
			"total": ev.Total,
		})
		if ev.Kind == pipeline.Completed {
			svc.finishAnalysis(id, entry)
		}
	})
	svc.runs[id] = entry
}

// cancelRun stops the session's pipeline, if any. Caller holds the session lock.
func (svc *SessionService) cancelRun(id string) bool {
	svc.runsMu.Lock()
	defer svc.runsMu.Unlock()
	entry := svc.runs[id]
	if entry == nil {
		return false
	}
	entry.run.Cancel()
	delete(svc.runs, id)
	return true
}

func (svc *SessionService) hasRun(id string) bool {
	svc.runsMu.Lock()
	defer svc.runsMu.Unlock()
	return svc.runs[id] != nil
}

// claimRun removes entry from the registry if it is still the session's current run.
func (svc *SessionService) claimRun(id string, entry *runEntry) bool {
	svc.runsMu.Lock()
	defer svc.runsMu.Unlock()
	if svc.runs[id] != entry {
		return false
	}
	delete(svc.runs, id)
	return true
}

func (svc *SessionService) finishAnalysis(id string, entry *runEntry) {
	unlock := svc.locks.Lock(id)
	defer unlock()

	if !svc.claimRun(id, entry) {
		// cancelled or superseded while the last event was in flight
		return
	}

	ctx, cancel := context.WithTimeout(svc.baseCtx, 10*time.Second)
	defer cancel()

	s, err := svc.mutateLocked(ctx, id, CompleteAnalysis)
	if err != nil {
		metrics.ObservePipeline("abandoned")
		svc.logger.Warn("could not complete analysis", zap.String("session_id", id), zap.Error(err))
		return
	}
	metrics.ObservePipeline("completed")
	svc.transitioned(s, models.StepMeasurements)
	svc.events.Broadcast(id, map[string]any{"kind": "results.ready"})
}

// Results returns the populated results view. Only available on the results step.
func (svc *SessionService) Results(ctx context.Context, id string) (*Results, error) {
	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.CurrentStep != models.StepResults {
		return nil, models.ErrResultsNotReady
	}
	return BuildResults(s, svc.catalog)
}

func (svc *SessionService) Report(ctx context.Context, id string) (string, error) {
	r, err := svc.Results(ctx, id)
	if err != nil {
		return "", err
	}
	return r.Text(), nil
}

// EmailReport sends the plain-text report to the given address.
func (svc *SessionService) EmailReport(ctx context.Context, id, to string) error {
	if svc.mailer == nil {
		return fmt.Errorf("%w: email delivery not configured", models.ErrServiceUnavailable)
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return fmt.Errorf("%w: invalid email address", models.ErrInvalidInput)
	}
	text, err := svc.Report(ctx, id)
	if err != nil {
		return err
	}
	if err := svc.mailer.SendText(ctx, addr.Address, "Your StyleFit style recommendation", text); err != nil {
		svc.logger.Error("report email failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrServiceUnavailable, err)
	}
	return nil
}

func (svc *SessionService) Restart(ctx context.Context, id string) (*SessionState, error) {
	unlock := svc.locks.Lock(id)
	defer unlock()

	s, err := svc.mutateLocked(ctx, id, Restart)
	if err != nil {
		return nil, err
	}
	svc.cancelRun(id)
	svc.transitioned(s, models.StepResults)
	return stateOf(s), nil
}

// PurgeExpired drops sessions idle for longer than ttl and stops their pipelines.
// Each delete runs under the session lock, so an in-flight mutation either lands
// first (and the session is no longer idle) or finds the session gone.
func (svc *SessionService) PurgeExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := svc.now().Add(-ttl)
	ids, err := svc.store.IdleBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closer, _ := svc.events.(sessionCloser)
	purged := 0
	for _, id := range ids {
		unlock := svc.locks.Lock(id)
		deleted, err := svc.store.DeleteIdle(ctx, id, cutoff)
		if err == nil && deleted {
			svc.cancelRun(id)
		}
		unlock()
		if err != nil {
			return purged, err
		}
		if !deleted {
			continue
		}
		purged++
		if closer != nil {
			closer.CloseSession(id)
		}
	}
	if purged > 0 {
		svc.logger.Info("expired sessions purged", zap.Int("count", purged))
	}
	return purged, nil
}

// Shutdown cancels every pipeline in flight and waits for them to exit.
func (svc *SessionService) Shutdown(ctx context.Context) error {
	svc.stop()

	svc.runsMu.Lock()
	runs := make([]*pipeline.Run, 0, len(svc.runs))
	for _, e := range svc.runs {
		runs = append(runs, e.run)
	}
	svc.runsMu.Unlock()

	for _, r := range runs {
		select {
		case <-r.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
