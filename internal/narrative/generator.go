package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
)

// ProgressFunc observes the three-way fan-out, from 0/3 to 3/3.
type ProgressFunc func(done, total int)

// Generator produces one scenario per slot, each in its assigned persona's style.
type Generator struct {
	client   llm.Client
	catalog  *PersonaCatalog
	settings CompletionSettings
	parallel bool
}

func NewGenerator(client llm.Client, catalog *PersonaCatalog, settings CompletionSettings, parallel bool) *Generator {
	if client == nil {
		panic("narrative: generator requires a completion client")
	}
	if catalog == nil {
		catalog = DefaultPersonaCatalog()
	}
	return &Generator{client: client, catalog: catalog, settings: settings, parallel: parallel}
}

// Generate fills every empty slot of existing and returns the updated set.
// Slots already holding a variant are never regenerated. When any slot fails
// the returned set still carries every slot that succeeded.
func (g *Generator) Generate(ctx context.Context, answers AnswerSet, assignment PersonaAssignment, existing [SlotCount]*ScenarioVariant, progress ProgressFunc) ([SlotCount]*ScenarioVariant, error) {
	out := existing
	var pending []Slot
	for _, slot := range Slots() {
		if out[slot.index()] == nil {
			pending = append(pending, slot)
		}
	}

	var mu sync.Mutex
	done := SlotCount - len(pending)
	report := func() {
		if progress != nil {
			progress(done, SlotCount)
		}
	}
	report()

	errs := make([]error, SlotCount)
	run := func(slot Slot) {
		variant, err := g.generateSlot(ctx, slot, assignment.For(slot), answers)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs[slot.index()] = &SlotError{Slot: slot, Persona: assignment.For(slot), Err: err}
			return
		}
		out[slot.index()] = variant
		done++
		report()
	}

	if g.parallel {
		var wg sync.WaitGroup
		for _, slot := range pending {
			wg.Add(1)
			go func(slot Slot) {
				defer wg.Done()
				run(slot)
			}(slot)
		}
		wg.Wait()
	} else {
		for _, slot := range pending {
			run(slot)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return out, fmt.Errorf("%w: %w", ErrFanOutIncomplete, err)
	}
	return out, nil
}

func (g *Generator) generateSlot(ctx context.Context, slot Slot, personaID PersonaID, answers AnswerSet) (*ScenarioVariant, error) {
	persona, ok := g.catalog.Get(personaID)
	if !ok {
		return nil, fmt.Errorf("narrative: no persona %q for %s", personaID, slot)
	}

	resp, err := g.client.Complete(ctx, llm.Request{
		Model:       g.settings.Model,
		System:      []string{persona.Template},
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: scenarioUserPrompt(answers)}},
		MaxTokens:   g.settings.MaxTokens,
		Temperature: g.settings.Temperature,
		Operation:   "generate",
	})
	if err != nil {
		return nil, &CollaboratorError{Stage: "generate", Err: err}
	}

	var parsed struct {
		OutputScenario *string `json:"output_scenario"`
	}
	if err := llm.DecodeObject(resp.Text, &parsed); err != nil {
		return nil, &MalformedExtractionError{Stage: "generate", Reason: err.Error(), Raw: resp.Text}
	}
	if parsed.OutputScenario == nil || strings.TrimSpace(*parsed.OutputScenario) == "" {
		return nil, &MalformedExtractionError{Stage: "generate", Reason: "missing output_scenario", Raw: resp.Text}
	}

	return &ScenarioVariant{
		Slot:    slot,
		Persona: personaID,
		Text:    strings.TrimSpace(*parsed.OutputScenario),
	}, nil
}
