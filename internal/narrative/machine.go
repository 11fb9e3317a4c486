package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Outcome describes what a transition produced for the presentation layer.
type Outcome struct {
	From     Phase
	To       Phase
	Event    EventType
	Reply    string
	Notices  []string
	Feedback *FeedbackRecord
	Proposal string
}

// Advanced reports whether the transition changed phase.
func (o Outcome) Advanced() bool { return o.From != o.To }

type progressKey struct{}

// WithProgress attaches a fan-out progress observer to ctx.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ProgressFrom returns the observer attached by WithProgress, or nil.
func ProgressFrom(ctx context.Context) ProgressFunc {
	fn, _ := ctx.Value(progressKey{}).(ProgressFunc)
	return fn
}

// MachineDeps are the components the state machine dispatches to.
type MachineDeps struct {
	Collector *Collector
	Extractor *Extractor
	Assigner  *PersonaAssigner
	Generator *Generator
	Adapter   *Adapter
	Now       func() time.Time
}

// Machine is the session state machine. It holds no per-session state.
type Machine struct {
	collector *Collector
	extractor *Extractor
	assigner  *PersonaAssigner
	generator *Generator
	adapter   *Adapter
	now       func() time.Time
}

func NewMachine(deps MachineDeps) *Machine {
	if deps.Collector == nil || deps.Extractor == nil || deps.Generator == nil || deps.Adapter == nil {
		panic("narrative: machine requires collector, extractor, generator and adapter")
	}
	if deps.Assigner == nil {
		deps.Assigner = NewPersonaAssigner(nil, nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Machine{
		collector: deps.Collector,
		extractor: deps.Extractor,
		assigner:  deps.Assigner,
		generator: deps.Generator,
		adapter:   deps.Adapter,
		now:       deps.Now,
	}
}

// Transition applies ev to a copy of s and returns the session to persist.
// On error the input session is returned unchanged, except when the step made
// progress worth keeping (an interview that reached the sentinel, or scenario
// slots that succeeded before another failed); then the advanced copy is
// returned alongside the error.
func (m *Machine) Transition(ctx context.Context, s *Session, ev Event) (*Session, Outcome, error) {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return s, Outcome{}, ErrMissingSessionIdentity
	}
	if ev == nil {
		return s, Outcome{From: s.Phase, To: s.Phase}, ErrUnknownEvent
	}

	next := s.Clone()
	out := Outcome{From: s.Phase, Event: ev.Type()}

	var keep bool
	var err error
	switch e := ev.(type) {
	case ConsentGiven:
		next.Consented = true
	case UserAnswered:
		keep, err = m.answer(ctx, next, e, &out)
	case ScenariosRequested:
		if next.Phase != PhaseSummarize {
			err = m.notAllowed(next, ev)
			break
		}
		keep = true
		err = m.summarize(ctx, next)
	case FeedbackSubmitted:
		err = m.feedback(next, e, &out)
	case ScenarioRated:
		err = m.withGate(next, ev, e.Slot, func(g *SlotGate) error { return RateSlot(g, e.Rating) })
	case TryAnother:
		err = m.withGate(next, ev, e.Slot, func(g *SlotGate) error {
			TryAnotherSlot(g)
			return nil
		})
	case ScenarioSelected:
		err = m.selectScenario(next, e, &out)
	case ScenarioEdited:
		if next.Phase != PhaseAdapting {
			err = m.notAllowed(next, ev)
			break
		}
		if err = ApplyDirectEdit(next.Package, e.Text); err == nil {
			next.Phase = PhaseReady
			out.Notices = append(out.Notices, ReadyMessage)
		}
	case AdaptationRequested:
		if next.Phase != PhaseAdapting {
			err = m.notAllowed(next, ev)
			break
		}
		out.Proposal, err = m.adapter.Rewrite(ctx, next.Package, e.Instruction)
	case AdaptationAccepted:
		if next.Phase != PhaseAdapting {
			err = m.notAllowed(next, ev)
			break
		}
		if err = AcceptProposal(next.Package); err == nil {
			next.Phase = PhaseReady
			out.Notices = append(out.Notices, ReadyMessage)
		}
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}

	if err != nil && !keep {
		out.To = s.Phase
		return s, out, err
	}
	next.UpdatedAt = m.now()
	out.To = next.Phase
	return next, out, err
}

func (m *Machine) notAllowed(s *Session, ev Event) error {
	return fmt.Errorf("%w: %s during %s", ErrEventNotAllowed, ev.Type(), s.Phase)
}

func (m *Machine) answer(ctx context.Context, s *Session, e UserAnswered, out *Outcome) (bool, error) {
	if s.Phase != PhaseCollect {
		return false, m.notAllowed(s, e)
	}
	if !s.Consented {
		return false, ErrConsentRequired
	}

	res, err := m.collector.Collect(ctx, s.Transcript, e.Text)
	if err != nil {
		return false, err
	}
	s.Transcript = res.Transcript
	out.Reply = res.Reply
	if !res.Finished {
		return true, nil
	}

	s.Phase = PhaseSummarize
	out.Notices = append(out.Notices, SummarizingMessage)
	return true, m.summarize(ctx, s)
}

// summarize extracts answers, draws the persona assignment and fills the
// scenario slots. Each piece is kept once produced so a retry only redoes
// what is missing.
func (m *Machine) summarize(ctx context.Context, s *Session) error {
	if s.Answers == nil {
		answers, err := m.extractor.Extract(ctx, s.Transcript)
		if err != nil {
			return err
		}
		s.Answers = &answers
	}
	if s.Assignment == nil {
		assignment := m.assigner.Assign()
		s.Assignment = &assignment
	}

	variants, err := m.generator.Generate(ctx, *s.Answers, *s.Assignment, s.Variants, ProgressFrom(ctx))
	s.Variants = variants
	if err != nil {
		return err
	}

	s.Phase = PhaseReview
	s.Gates = [SlotCount]SlotGate{}
	return nil
}

func (m *Machine) feedback(s *Session, e FeedbackSubmitted, out *Outcome) error {
	if s.Phase != PhaseReview {
		return m.notAllowed(s, e)
	}
	variant := s.Variant(e.Slot)
	if variant == nil {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, int(e.Slot))
	}
	record, err := RecordFeedback(variant, e.Kind, e.Score, e.Comment, m.now())
	if err != nil {
		return err
	}
	out.Feedback = &record
	return nil
}

func (m *Machine) withGate(s *Session, ev Event, slot Slot, apply func(*SlotGate) error) error {
	if s.Phase != PhaseReview {
		return m.notAllowed(s, ev)
	}
	if !slot.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, int(slot))
	}
	return apply(&s.Gates[slot.index()])
}

// selectScenario freezes the package at the moment of selection.
func (m *Machine) selectScenario(s *Session, e ScenarioSelected, out *Outcome) error {
	if s.Phase != PhaseReview {
		return m.notAllowed(s, e)
	}
	if !e.Slot.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, int(e.Slot))
	}
	gate := s.Gates[e.Slot.index()]
	if !CanAccept(gate) {
		return fmt.Errorf("%w: %s", ErrSelectionNotJudged, e.Slot)
	}

	pkg := &ScenarioPackage{
		Scenario:     s.Variant(e.Slot).Text,
		SelectedSlot: e.Slot,
		Answers:      *s.Answers,
		Judgment:     gate.Rating,
		Transcript:   s.Transcript.clone(),
		Adaptations:  []AdaptationEntry{},
		Assignment:   *s.Assignment,
		SelectedAt:   m.now(),
	}
	for _, v := range s.Variants {
		pkg.Variants = append(pkg.Variants, *v.clone())
	}
	s.Package = pkg

	if gate.Rating == RatingReadyAsIs {
		s.Phase = PhaseReady
		out.Notices = append(out.Notices, ReadyMessage)
		return nil
	}
	s.Phase = PhaseAdapting
	out.Notices = append(out.Notices, AdaptPromptMessage)
	return nil
}
