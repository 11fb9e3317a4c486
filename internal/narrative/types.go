// Package narrative implements the micro-narrative elicitation session: a
// guided interview that is distilled into four answers, paraphrased by three
// personas, rated and selected by the participant, and refined until final.
package narrative

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Phase is the session's position in the elicitation flow. Phases only move forward.
type Phase string

const (
	PhaseCollect   Phase = "collect"
	PhaseSummarize Phase = "summarize"
	PhaseReview    Phase = "review"
	PhaseAdapting  Phase = "finalize:adapting"
	PhaseReady     Phase = "finalize:ready"
)

func (p Phase) order() int {
	switch p {
	case PhaseCollect:
		return 0
	case PhaseSummarize:
		return 1
	case PhaseReview:
		return 2
	case PhaseAdapting:
		return 3
	case PhaseReady:
		return 4
	default:
		return -1
	}
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool { return p.order() >= 0 }

// Finalize reports whether p is one of the finalize sub-phases.
func (p Phase) Finalize() bool { return p == PhaseAdapting || p == PhaseReady }

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the ordered interview history. It is append-only during collect.
type Transcript []Turn

func (t Transcript) clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Render flattens the transcript into "role: text" lines for prompts.
func (t Transcript) Render() string {
	var b strings.Builder
	for _, turn := range t {
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// AnswerSet is the structured distillation of the interview.
type AnswerSet struct {
	What     string `json:"what" dynamodbav:"what"`
	Context  string `json:"context" dynamodbav:"context"`
	Outcome  string `json:"outcome" dynamodbav:"outcome"`
	Reaction string `json:"reaction" dynamodbav:"reaction"`
}

// Slot identifies one of the three scenario positions, 1 through 3.
type Slot int

const SlotCount = 3

func (s Slot) Valid() bool { return s >= 1 && s <= SlotCount }

func (s Slot) index() int { return int(s) - 1 }

func (s Slot) String() string { return "slot" + strconv.Itoa(int(s)) }

// Slots lists every slot in order.
func Slots() []Slot { return []Slot{1, 2, 3} }

type PersonaID string

const (
	PersonaFormal       PersonaID = "formal"
	PersonaYoungSibling PersonaID = "young-sibling"
	PersonaFriend       PersonaID = "friend"
)

// PersonaAssignment maps slot1..slot3 to personas. Index 0 is slot1.
type PersonaAssignment [SlotCount]PersonaID

// For returns the persona assigned to slot.
func (a PersonaAssignment) For(slot Slot) PersonaID {
	if !slot.Valid() {
		return ""
	}
	return a[slot.index()]
}

// Valid reports whether a is a bijection over the fixed persona set.
func (a PersonaAssignment) Valid() bool {
	seen := make(map[PersonaID]bool, SlotCount)
	for _, id := range a {
		switch id {
		case PersonaFormal, PersonaYoungSibling, PersonaFriend:
		default:
			return false
		}
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return len(seen) == SlotCount
}

type FeedbackKind string

const (
	FeedbackThumbs FeedbackKind = "thumbs"
	FeedbackFaces  FeedbackKind = "faces"
)

// FeedbackRecord is the once-per-slot public-style score.
type FeedbackRecord struct {
	Kind       FeedbackKind `json:"kind"`
	Token      string       `json:"token"`
	Score      float64      `json:"score"`
	Comment    string       `json:"comment,omitempty"`
	RecordedAt time.Time    `json:"recorded_at"`
}

type ScenarioVariant struct {
	Slot     Slot            `json:"slot"`
	Persona  PersonaID       `json:"persona"`
	Text     string          `json:"text"`
	Feedback *FeedbackRecord `json:"feedback,omitempty"`
}

func (v *ScenarioVariant) clone() *ScenarioVariant {
	if v == nil {
		return nil
	}
	out := *v
	if v.Feedback != nil {
		fb := *v.Feedback
		out.Feedback = &fb
	}
	return &out
}

// Rating is the four-level quality judgment that gates selection.
type Rating int

const (
	RatingNotReally Rating = iota + 1
	RatingNeedsEdits
	RatingPrettyGood
	RatingReadyAsIs
)

var ratingLabels = map[Rating]string{
	RatingNotReally:  "not_really",
	RatingNeedsEdits: "needs_edits",
	RatingPrettyGood: "pretty_good",
	RatingReadyAsIs:  "ready_as_is",
}

// Display labels shown next to the rating control.
var ratingDisplay = map[Rating]string{
	RatingNotReally:  "Not really",
	RatingNeedsEdits: "Needs some edits",
	RatingPrettyGood: "Pretty good but I'd like to tweak it",
	RatingReadyAsIs:  "Ready as is!",
}

func (r Rating) Valid() bool { return r >= RatingNotReally && r <= RatingReadyAsIs }

func (r Rating) String() string {
	if label, ok := ratingLabels[r]; ok {
		return label
	}
	return "unknown"
}

// Display returns the participant-facing label.
func (r Rating) Display() string { return ratingDisplay[r] }

// ParseRating accepts a label, a display label or the ordinal 1-4.
func ParseRating(raw string) (Rating, error) {
	value := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(value); err == nil {
		if r := Rating(n); r.Valid() {
			return r, nil
		}
		return 0, fmt.Errorf("narrative: rating %d out of range", n)
	}
	normalized := strings.ToLower(strings.NewReplacer(" ", "_", "-", "_").Replace(value))
	for r, label := range ratingLabels {
		if normalized == label || strings.EqualFold(value, ratingDisplay[r]) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("narrative: unknown rating %q", raw)
}

func (r Rating) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("narrative: invalid rating %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rating) UnmarshalText(text []byte) error {
	parsed, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// SlotGate holds the selection gate for one slot. Accept is allowed only
// while Rated is true; a quality rating sets it, "try another" clears it.
type SlotGate struct {
	Rating Rating `json:"rating,omitempty"`
	Rated  bool   `json:"rated"`
}

// AwaitingJudgment is the inverse of Rated: true until the slot is rated and
// again after every "try another".
func (g SlotGate) AwaitingJudgment() bool { return !g.Rated }

// AdaptationEntry is one step of post-selection refinement.
type AdaptationEntry struct {
	Source string `json:"source" dynamodbav:"source"`
	Result string `json:"result" dynamodbav:"result"`
}

// ScenarioPackage is frozen at selection and refined during finalize.
type ScenarioPackage struct {
	Scenario     string            `json:"scenario"`
	SelectedSlot Slot              `json:"selected_slot"`
	Answers      AnswerSet         `json:"answers"`
	Judgment     Rating            `json:"judgment"`
	Variants     []ScenarioVariant `json:"scenarios_all"`
	Transcript   Transcript        `json:"transcript"`
	Adaptations  []AdaptationEntry `json:"adaptations"`
	Assignment   PersonaAssignment `json:"persona_assignment"`
	Proposal     string            `json:"proposal,omitempty"`
	SelectedAt   time.Time         `json:"selected_at"`
}

func (p *ScenarioPackage) clone() *ScenarioPackage {
	if p == nil {
		return nil
	}
	out := *p
	out.Variants = make([]ScenarioVariant, len(p.Variants))
	for i, v := range p.Variants {
		out.Variants[i] = *v.clone()
	}
	out.Transcript = p.Transcript.clone()
	out.Adaptations = append([]AdaptationEntry(nil), p.Adaptations...)
	return &out
}

// Session is the complete per-participant state persisted between triggers.
type Session struct {
	ID          string                      `json:"id"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	Phase       Phase                       `json:"phase"`
	Consented   bool                        `json:"consented"`
	Transcript  Transcript                  `json:"transcript"`
	Answers     *AnswerSet                  `json:"answers,omitempty"`
	Assignment  *PersonaAssignment          `json:"persona_assignment,omitempty"`
	Variants    [SlotCount]*ScenarioVariant `json:"variants"`
	Gates       [SlotCount]SlotGate         `json:"gates"`
	Package     *ScenarioPackage            `json:"package,omitempty"`
	Persisted   bool                        `json:"persisted"`
	PersistedAt *time.Time                  `json:"persisted_at,omitempty"`
}

// NewSession creates a session in collect with the introductory turn in place.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:         id,
		CreatedAt:  now,
		UpdatedAt:  now,
		Phase:      PhaseCollect,
		Transcript: Transcript{{Role: RoleAssistant, Text: IntroMessage}},
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Transcript = s.Transcript.clone()
	if s.Answers != nil {
		a := *s.Answers
		out.Answers = &a
	}
	if s.Assignment != nil {
		a := *s.Assignment
		out.Assignment = &a
	}
	for i, v := range s.Variants {
		out.Variants[i] = v.clone()
	}
	out.Package = s.Package.clone()
	if s.PersistedAt != nil {
		t := *s.PersistedAt
		out.PersistedAt = &t
	}
	return &out
}

// Variant returns the variant in slot, or nil.
func (s *Session) Variant(slot Slot) *ScenarioVariant {
	if !slot.Valid() {
		return nil
	}
	return s.Variants[slot.index()]
}

// GeneratedCount is the number of slots holding a variant.
func (s *Session) GeneratedCount() int {
	n := 0
	for _, v := range s.Variants {
		if v != nil {
			n++
		}
	}
	return n
}
