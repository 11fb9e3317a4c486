package narrative

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDirectEdit(t *testing.T) {
	pkg := &ScenarioPackage{Scenario: "B", Judgment: RatingNeedsEdits, Adaptations: []AdaptationEntry{}}

	require.NoError(t, ApplyDirectEdit(pkg, "T"))
	assert.Equal(t, "T", pkg.Scenario)
	assert.Equal(t, RatingReadyAsIs, pkg.Judgment)
	assert.Equal(t, []AdaptationEntry{{Source: "direct_text_edit from: B", Result: "T"}}, pkg.Adaptations)

	assert.ErrorIs(t, ApplyDirectEdit(pkg, "  "), ErrEmptyInput)
	assert.Len(t, pkg.Adaptations, 1)
}

func TestAdapterRewriteHoldsProposal(t *testing.T) {
	client := newScriptedClient().on("adapt",
		reply(`{"new_scenario": "B, but shorter"}`),
		reply("```json\n{\"new_scenario\": \"B, but kinder\"}\n```"),
	)
	adapter := NewAdapter(client, CompletionSettings{})
	pkg := &ScenarioPackage{Scenario: "B", Judgment: RatingPrettyGood, Adaptations: []AdaptationEntry{}}

	proposal, err := adapter.Rewrite(context.Background(), pkg, "make it shorter")
	require.NoError(t, err)
	assert.Equal(t, "B, but shorter", proposal)
	assert.Equal(t, "B", pkg.Scenario, "rewrite must not auto-accept")
	assert.Equal(t, RatingPrettyGood, pkg.Judgment)

	_, err = adapter.Rewrite(context.Background(), pkg, "make it kinder")
	require.NoError(t, err)
	assert.Equal(t, "B, but kinder", pkg.Proposal)
	assert.Equal(t, []AdaptationEntry{
		{Source: "make it shorter", Result: "B, but shorter"},
		{Source: "make it kinder", Result: "B, but kinder"},
	}, pkg.Adaptations)
	assert.Contains(t, client.requests[1].Messages[0].Content, "Scenario:\nB\n")

	require.NoError(t, AcceptProposal(pkg))
	assert.Equal(t, "B, but kinder", pkg.Scenario)
	assert.Equal(t, RatingReadyAsIs, pkg.Judgment)
	assert.Empty(t, pkg.Proposal)
}

func TestAdapterRewriteFailures(t *testing.T) {
	client := newScriptedClient().on("adapt", reply(`{"scenario": "wrong"}`), failure("timeout"))
	adapter := NewAdapter(client, CompletionSettings{})
	pkg := &ScenarioPackage{Scenario: "B", Adaptations: []AdaptationEntry{}}

	_, err := adapter.Rewrite(context.Background(), pkg, "shorter")
	assert.True(t, errors.Is(err, ErrMalformedExtraction))
	_, err = adapter.Rewrite(context.Background(), pkg, "shorter")
	assert.True(t, errors.Is(err, ErrCollaboratorUnavailable))
	_, err = adapter.Rewrite(context.Background(), pkg, " ")
	assert.ErrorIs(t, err, ErrEmptyInput)

	assert.Empty(t, pkg.Adaptations)
	assert.Empty(t, pkg.Proposal)
}

func TestAcceptProposalRequiresPending(t *testing.T) {
	pkg := &ScenarioPackage{Scenario: "B"}
	assert.ErrorIs(t, AcceptProposal(pkg), ErrNoPendingAdaptation)
	assert.Equal(t, "B", pkg.Scenario)
}
