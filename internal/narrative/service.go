package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var serviceTracer = otel.Tracer("narrative.internal.narrative")

// ErrPackageNotPersisted means the session is ready but the durable write
// failed; the next trigger retries it.
var ErrPackageNotPersisted = errors.New("narrative: scenario package not yet persisted")

// Store keeps sessions between triggers and serializes triggers per session.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Lock returns ErrSessionBusy while another trigger holds the session.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// PackageSink receives the write-once package record.
type PackageSink interface {
	Persist(ctx context.Context, record PackageRecord) error
}

// Observer receives session telemetry.
type Observer interface {
	ObserveEvent(event EventType, result string)
	ObserveTransition(from, to Phase)
	ObserveFeedback(kind FeedbackKind, score float64)
	ObservePersist(status string)
}

type nopObserver struct{}

func (nopObserver) ObserveEvent(EventType, string)        {}
func (nopObserver) ObserveTransition(Phase, Phase)        {}
func (nopObserver) ObserveFeedback(FeedbackKind, float64) {}
func (nopObserver) ObservePersist(string)                 {}

// Service loads a session, applies one event, saves it and persists the
// package once the session is ready.
type Service struct {
	machine        *Machine
	store          Store
	sink           PackageSink
	observer       Observer
	logger         *logging.Logger
	now            func() time.Time
	completionCode string
}

type ServiceOption func(*Service)

func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l *logging.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCompletionCode sets the code shown to participants once their package is saved.
func WithCompletionCode(code string) ServiceOption {
	return func(s *Service) { s.completionCode = code }
}

func NewService(machine *Machine, store Store, sink PackageSink, opts ...ServiceOption) *Service {
	if machine == nil {
		panic("narrative: service requires a machine")
	}
	if store == nil {
		panic("narrative: service requires a session store")
	}
	if sink == nil {
		panic("narrative: service requires a package sink")
	}
	svc := &Service{
		machine:  machine,
		store:    store,
		sink:     sink,
		observer: nopObserver{},
		logger:   logging.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Current returns the session's view, creating the session on first contact.
func (s *Service) Current(ctx context.Context, sessionID string) (View, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return View{}, ErrMissingSessionIdentity
	}
	sess, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		unlock, lerr := s.store.Lock(ctx, sessionID)
		if lerr != nil {
			return View{}, lerr
		}
		defer unlock()
		sess, err = s.loadOrCreate(ctx, sessionID)
	}
	if err != nil {
		return View{}, err
	}
	return BuildView(sess, Outcome{From: sess.Phase, To: sess.Phase}, s.completionCode), nil
}

// Session returns the raw session state for operators.
func (s *Service) Session(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrMissingSessionIdentity
	}
	return s.store.Load(ctx, strings.TrimSpace(sessionID))
}

// Handle applies one event to the session. The returned view is always
// renderable; advisory failures carry a Warning alongside the error.
func (s *Service) Handle(ctx context.Context, sessionID string, ev Event) (View, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return View{}, ErrMissingSessionIdentity
	}
	if ev == nil {
		return View{}, ErrUnknownEvent
	}

	ctx, span := serviceTracer.Start(ctx, "narrative.handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("narrative.session_id", sessionID),
		attribute.String("narrative.event", string(ev.Type())),
	)

	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return View{}, err
	}
	defer unlock()

	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		return View{}, err
	}
	logger := s.logger.ForSession(sessionID)

	// A ready session whose write failed uses this trigger to retry it.
	if sess.Phase == PhaseReady && !sess.Persisted {
		err := s.persist(ctx, sess, logger)
		view := BuildView(sess, Outcome{From: sess.Phase, To: sess.Phase, Event: ev.Type()}, s.completionCode)
		if err != nil {
			span.RecordError(err)
			view.Warning = warningFor(err)
		}
		return view, err
	}

	next, out, terr := s.machine.Transition(ctx, sess, ev)
	s.observer.ObserveEvent(ev.Type(), resultLabel(terr))
	if terr != nil {
		span.RecordError(terr)
		logger.Warn("event rejected", "event", ev.Type(), "phase", sess.Phase, "error", terr)
	}

	if next != sess {
		if err := s.store.Save(ctx, next); err != nil {
			span.RecordError(err)
			return View{}, fmt.Errorf("narrative: save session: %w", err)
		}
	}
	if out.Advanced() {
		s.observer.ObserveTransition(out.From, out.To)
		logger.Info("phase advanced", "from", out.From, "to", out.To, "event", ev.Type())
	}
	if out.Feedback != nil {
		s.observer.ObserveFeedback(out.Feedback.Kind, out.Feedback.Score)
		s.logFeedback(logger, next, ev, out.Feedback)
	}

	if terr == nil && next.Phase == PhaseReady && !next.Persisted {
		terr = s.persist(ctx, next, logger)
	}

	view := BuildView(next, out, s.completionCode)
	if terr != nil {
		view.Warning = warningFor(terr)
	}
	return view, terr
}

func (s *Service) loadOrCreate(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("narrative: load session: %w", err)
	}
	sess = NewSession(sessionID, s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("narrative: save new session: %w", err)
	}
	s.logger.ForSession(sessionID).Info("session created")
	return sess, nil
}

// persist writes the package record and saves the session's persisted flag.
func (s *Service) persist(ctx context.Context, sess *Session, logger *logging.Logger) error {
	now := s.now()
	if err := s.sink.Persist(ctx, NewPackageRecord(sess, now)); err != nil {
		s.observer.ObservePersist("error")
		logger.Error("package persist failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPackageNotPersisted, err)
	}
	sess.Persisted = true
	sess.PersistedAt = &now
	if err := s.store.Save(ctx, sess); err != nil {
		// The durable record exists; a later retry is absorbed as already persisted.
		logger.Warn("save after persist failed", "error", err)
	}
	s.observer.ObservePersist("ok")
	logger.Info("package persisted", "judgment", sess.Package.Judgment.String(), "adaptations", len(sess.Package.Adaptations))
	return nil
}

func (s *Service) logFeedback(logger *logging.Logger, sess *Session, ev Event, record *FeedbackRecord) {
	fb, ok := ev.(FeedbackSubmitted)
	if !ok {
		return
	}
	variant := sess.Variant(fb.Slot)
	attrs := []any{
		"slot", fb.Slot.String(),
		"feedback_type", record.Kind,
		"score", record.Score,
		"comment", record.Comment,
	}
	if variant != nil {
		attrs = append(attrs, "persona", variant.Persona, "scenario", variant.Text)
	}
	if sess.Answers != nil {
		attrs = append(attrs, "answers", *sess.Answers)
	}
	logger.Info("feedback recorded", attrs...)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidFeedbackScore), errors.Is(err, ErrFeedbackAlreadyRecorded),
		errors.Is(err, ErrSelectionNotJudged), errors.Is(err, ErrEventNotAllowed),
		errors.Is(err, ErrConsentRequired), errors.Is(err, ErrNoPendingAdaptation),
		errors.Is(err, ErrEmptyInput), errors.Is(err, ErrInvalidSlot):
		return "rejected"
	case errors.Is(err, ErrMalformedExtraction):
		return "malformed"
	case errors.Is(err, ErrCollaboratorUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

// warningFor returns the short advisory shown to the participant.
func warningFor(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFeedbackScore):
		return "Invalid feedback score."
	case errors.Is(err, ErrFeedbackAlreadyRecorded):
		return "You have already left feedback on this scenario."
	case errors.Is(err, ErrSelectionNotJudged):
		return "Please rate this scenario before choosing it."
	case errors.Is(err, ErrConsentRequired):
		return "Please confirm that you have read the information above before starting."
	case errors.Is(err, ErrNoPendingAdaptation):
		return "Ask for a change first, then accept it."
	case errors.Is(err, ErrEmptyInput):
		return "Please type something first."
	case errors.Is(err, ErrFanOutIncomplete), errors.Is(err, ErrMalformedExtraction):
		return "Something went wrong while preparing your scenarios. Please try again."
	case errors.Is(err, ErrCollaboratorUnavailable):
		return "The assistant is unavailable right now. Please try again in a moment."
	case errors.Is(err, ErrPackageNotPersisted):
		return "We couldn't save your scenario yet. Please try again."
	case errors.Is(err, ErrEventNotAllowed):
		return "That action isn't available right now."
	default:
		return "Something went wrong. Please try again."
	}
}
