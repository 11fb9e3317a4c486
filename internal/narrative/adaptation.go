package narrative

import (
	"context"
	"strings"

	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/llm"
)

// DirectEditPrefix tags adaptation entries produced by a participant's own edit.
const DirectEditPrefix = "direct_text_edit from: "

// Adapter refines the selected scenario after selection.
type Adapter struct {
	client   llm.Client
	settings CompletionSettings
}

func NewAdapter(client llm.Client, settings CompletionSettings) *Adapter {
	if client == nil {
		panic("narrative: adapter requires a completion client")
	}
	return &Adapter{client: client, settings: settings}
}

// ApplyDirectEdit replaces the scenario with the participant's own text and
// marks it final.
func ApplyDirectEdit(pkg *ScenarioPackage, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	pkg.Adaptations = append(pkg.Adaptations, AdaptationEntry{
		Source: DirectEditPrefix + pkg.Scenario,
		Result: text,
	})
	pkg.Scenario = text
	pkg.Judgment = RatingReadyAsIs
	pkg.Proposal = ""
	return nil
}

// Rewrite asks the model to apply instruction to the package's current
// scenario. The result is recorded and held as a proposal, replacing any
// earlier one; the scenario itself is not changed until accepted.
func (a *Adapter) Rewrite(ctx context.Context, pkg *ScenarioPackage, instruction string) (string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return "", ErrEmptyInput
	}
	resp, err := a.client.Complete(ctx, llm.Request{
		Model:       a.settings.Model,
		System:      []string{adaptationPrompt},
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: adaptationUserPrompt(pkg.Scenario, instruction)}},
		MaxTokens:   a.settings.MaxTokens,
		Temperature: a.settings.Temperature,
		Operation:   "adapt",
	})
	if err != nil {
		return "", &CollaboratorError{Stage: "adapt", Err: err}
	}

	var parsed struct {
		NewScenario *string `json:"new_scenario"`
	}
	if err := llm.DecodeObject(resp.Text, &parsed); err != nil {
		return "", &MalformedExtractionError{Stage: "adapt", Reason: err.Error(), Raw: resp.Text}
	}
	if parsed.NewScenario == nil || strings.TrimSpace(*parsed.NewScenario) == "" {
		return "", &MalformedExtractionError{Stage: "adapt", Reason: "missing new_scenario", Raw: resp.Text}
	}

	proposal := strings.TrimSpace(*parsed.NewScenario)
	pkg.Adaptations = append(pkg.Adaptations, AdaptationEntry{Source: instruction, Result: proposal})
	pkg.Proposal = proposal
	return proposal, nil
}

// AcceptProposal makes the pending rewrite the final scenario.
func AcceptProposal(pkg *ScenarioPackage) error {
	if pkg.Proposal == "" {
		return ErrNoPendingAdaptation
	}
	pkg.Scenario = pkg.Proposal
	pkg.Proposal = ""
	pkg.Judgment = RatingReadyAsIs
	return nil
}
